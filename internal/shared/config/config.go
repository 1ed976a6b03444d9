package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"liuproxy_keepalive/internal/shared/types"
)

// ErrNoUserID 表示既没有配置 user_id，也无法从 user_id_file 读取。
var ErrNoUserID = errors.New("no user id configured")

// LoadIni 加载 keepalive.ini 到 cfg。文件不存在时保留 cfg 中的默认值。
func LoadIni(cfg *types.Config, fileName string) error {
	if _, err := os.Stat(fileName); err == nil {
		iniFile, err := ini.Load(fileName)
		if err != nil {
			return err
		}
		if err := iniFile.MapTo(cfg); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	overrideFromEnvString(&cfg.CommonConf.UserID, "USER_ID")
	overrideFromEnvString(&cfg.ProxyPoolConf.RedisAddr, "REDIS_ADDR")
	overrideFromEnvString(&cfg.ProxyPoolConf.SourceURL, "PROXY_SOURCE_URL")
	overrideFromEnvInt(&cfg.LocalConf.WebPort, "WEB_PORT")
	return nil
}

// LoadUserID 返回运营者标识：优先 user_id，其次 user_id_file 的首行内容。
func LoadUserID(cfg *types.Config) (string, error) {
	if id := strings.TrimSpace(cfg.CommonConf.UserID); id != "" {
		return id, nil
	}
	if cfg.CommonConf.UserIDFile == "" {
		return "", ErrNoUserID
	}
	data, err := os.ReadFile(cfg.CommonConf.UserIDFile)
	if err != nil {
		return "", fmt.Errorf("failed to read user id file: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNoUserID
	}
	return id, nil
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
