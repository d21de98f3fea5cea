package config

import "testing"

func TestLoadDefaultsToSQLite(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Fatalf("driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Auth.AccessTokenTTLMinutes != 480 {
		t.Fatalf("ttl = %d, want 480", cfg.Auth.AccessTokenTTLMinutes)
	}
	if cfg.RateLimit.Max != 60 || cfg.SLA.BatchSize != 500 || cfg.SLA.Interval().Seconds() != 60 {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.RateLimit, cfg.SLA)
	}
}

func TestLoadSelectsPostgresWhenDSNSet(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/helpdesk")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Fatalf("driver = %q, want postgres", cfg.Store.Driver)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:   AppConfig{Env: "development"},
			Store: StoreConfig{Driver: StoreDriverSQLite},
			Auth:  AuthConfig{JWTSecret: defaultJWTSecret},
			SLA:   SLAConfig{IntervalSeconds: 60},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "production with default secret", mutate: func(c *Config) { c.App.Env = "production" }, wantErr: true},
		{name: "production with secret", mutate: func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = "s3cret"
		}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = StoreDriverPostgres }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.SLA.IntervalSeconds = 0 }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	got := getEnvAsList("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
