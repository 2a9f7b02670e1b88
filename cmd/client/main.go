// The headless client wires the session core together: REST gateway, AI
// collaborator, voice session over null media, and the state store. It logs
// in as a configured user, loads the backend state, and keeps the session
// alive until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cordis/internal/ai"
	"cordis/internal/config"
	"cordis/internal/gateway"
	"cordis/internal/models"
	"cordis/internal/state"
	"cordis/internal/voice"

	"go.uber.org/zap"
)

func setupLogger() (*zap.SugaredLogger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	userID := flag.String("user", "u1", "user ID to run the session as")
	configPath := flag.String("config", "config.json", "path to the config file")
	flag.Parse()

	sugar, err := setupLogger()
	if err != nil {
		fmt.Println(err)
		return
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		sugar.Fatal(err)
	}

	backendURL := fmt.Sprintf("http://%s:%s", cfg.Address, cfg.Port)
	gw := gateway.New(backendURL)
	bot := ai.New(cfg.AiEndpoint, cfg.AiApiKey, sugar)
	session := voice.NewSession(nullMedia{}, logNotifier{sugar: sugar}, sugar)

	ctx := context.Background()

	currentUser := models.User{
		ID:       *userID,
		Username: "Wanderer",
		Status:   models.StatusOnline,
		Settings: models.UserSettings{
			Language:           models.LanguageEN,
			Theme:              models.ThemeDark,
			Notifications:      true,
			NotificationSounds: true,
		},
	}
	if profile, err := gw.GetUser(ctx, *userID); err != nil {
		sugar.Warnf("Backend unreachable, starting with a local profile: %v", err)
	} else if profile != nil {
		currentUser = *profile
	}

	store := state.New(currentUser, gw, bot, session, sugar)
	defer store.Close()

	store.Load(ctx)

	serverID := store.ActiveServerID()
	channelID := store.ActiveChannelID()
	sugar.Infof("Session ready: user [%s] on server [%s], channel [%s]", currentUser.ID, serverID, channelID)
	if channelID != "" {
		store.SelectChannel(ctx, channelID)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if store.ActiveVoiceChannelID() != "" {
		session.LeaveCall()
	}
	sugar.Info("Shutting down")
}
