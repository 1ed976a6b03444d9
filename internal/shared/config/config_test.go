package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"liuproxy_keepalive/internal/shared/types"
)

func TestLoadIni_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keepalive.ini")
	content := `[common]
user_id = operator-1

[session]
endpoints = wss://a.example:4444/, wss://b.example:4650/
ping_interval_ms = 2500
tls_fingerprint = chrome

[proxypool]
storage = redis
redis_key = pool:test

[log]
level = debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write ini: %v", err)
	}

	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, path); err != nil {
		t.Fatalf("LoadIni() returned an error: %v", err)
	}

	if cfg.CommonConf.UserID != "operator-1" {
		t.Errorf("Expected user_id 'operator-1', but got '%s'", cfg.CommonConf.UserID)
	}
	if len(cfg.SessionConf.Endpoints) != 2 || cfg.SessionConf.Endpoints[1] != "wss://b.example:4650/" {
		t.Errorf("Unexpected endpoints: %v", cfg.SessionConf.Endpoints)
	}
	if cfg.SessionConf.PingIntervalMs != 2500 {
		t.Errorf("Expected ping interval 2500, but got %d", cfg.SessionConf.PingIntervalMs)
	}
	// 未出现在文件中的键保留默认值
	if cfg.SessionConf.MaxJitterMs != 1000 {
		t.Errorf("Expected default jitter 1000, but got %d", cfg.SessionConf.MaxJitterMs)
	}
	if cfg.ProxyPoolConf.Storage != "redis" || cfg.ProxyPoolConf.RedisKey != "pool:test" {
		t.Errorf("Unexpected proxypool conf: %+v", cfg.ProxyPoolConf)
	}
	if cfg.LogConf.Level != "debug" {
		t.Errorf("Expected log level 'debug', but got '%s'", cfg.LogConf.Level)
	}
}

func TestLoadIni_MissingFileKeepsDefaults(t *testing.T) {
	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")); err != nil {
		t.Fatalf("LoadIni() returned an error: %v", err)
	}
	if cfg.SessionConf.PingIntervalMs != 5000 {
		t.Errorf("Expected default ping interval, but got %d", cfg.SessionConf.PingIntervalMs)
	}
}

func TestLoadIni_EnvOverride(t *testing.T) {
	t.Setenv("USER_ID", "from-env")
	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")); err != nil {
		t.Fatalf("LoadIni() returned an error: %v", err)
	}
	if cfg.CommonConf.UserID != "from-env" {
		t.Errorf("Expected env override 'from-env', but got '%s'", cfg.CommonConf.UserID)
	}
}

func TestLoadUserID(t *testing.T) {
	dir := t.TempDir()
	idFile := filepath.Join(dir, "user_id.txt")
	if err := os.WriteFile(idFile, []byte("  file-user\n"), 0644); err != nil {
		t.Fatalf("failed to write user id file: %v", err)
	}

	tests := []struct {
		name    string
		conf    types.CommonConf
		want    string
		wantErr error
	}{
		{name: "inline", conf: types.CommonConf{UserID: "inline-user", UserIDFile: idFile}, want: "inline-user"},
		{name: "file", conf: types.CommonConf{UserIDFile: idFile}, want: "file-user"},
		{name: "missing", conf: types.CommonConf{}, wantErr: ErrNoUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &types.Config{CommonConf: tt.conf}
			got, err := LoadUserID(cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, but got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadUserID() returned an error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected '%s', but got '%s'", tt.want, got)
			}
		})
	}
}
