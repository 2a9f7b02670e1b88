package main

import (
	"context"
	"fmt"
	"net/http"

	"cordis/internal/config"
	"cordis/internal/hub"
	"cordis/internal/keyValue"
	"cordis/internal/server"
	"cordis/internal/snowflake"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"go.uber.org/zap"
)

func setupLogger(logToFile bool) (*zap.SugaredLogger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	if logToFile {
		zapConfig.OutputPaths = []string{"app.log", "stdout"}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func setupRedis(address string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: address,
	})

	err := rdb.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func main() {
	fmt.Println("Reading config file...")
	cfg, err := config.Read("config.json")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Setting up logger...")
	sugar, err := setupLogger(cfg.LogToFile)
	if err != nil {
		fmt.Println(err)
		return
	}

	if cfg.SelfContained {
		fmt.Println("Connecting to database sqlite...")
	} else {
		fmt.Println("Connecting to database mysql/mariadb...")
	}
	db, err := server.OpenDatabase(cfg)
	if err != nil {
		sugar.Fatal(err)
	}

	var redisClient *redis.Client
	if !cfg.SelfContained {
		fmt.Println("Connecting to redis...")
		redisClient, err = setupRedis(cfg.RedisAddress)
		if err != nil {
			sugar.Fatal(err)
		}
	}

	events := hub.New(sugar, redisClient, cfg.SelfContained)
	presence := keyValue.New(sugar, redisClient, cfg.SelfContained)

	ids, err := snowflake.New(cfg.SnowflakeWorkerID)
	if err != nil {
		sugar.Fatal(err)
	}

	handler := server.Setup(cfg, sugar, db, events, presence, ids)

	address := fmt.Sprintf("%s:%s", cfg.Address, cfg.Port)
	isHttps := cfg.TlsCert != "" && cfg.TlsKey != ""

	if isHttps {
		fmt.Printf("Server is running on https://%s\n", address)
		err = http.ListenAndServeTLS(address, cfg.TlsCert, cfg.TlsKey, handler)
	} else {
		fmt.Printf("Server is running on http://%s\n", address)
		err = http.ListenAndServe(address, handler)
	}
	sugar.Fatal(err)
}
