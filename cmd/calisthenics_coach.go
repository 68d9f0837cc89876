package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/config"
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/history"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
	"github.com/lowaak/calisthenics-coach/internal/logging"
	"github.com/lowaak/calisthenics-coach/internal/recognizer"
	"github.com/lowaak/calisthenics-coach/internal/session"
	"github.com/lowaak/calisthenics-coach/internal/settings"
	"github.com/lowaak/calisthenics-coach/internal/timing"
	"github.com/lowaak/calisthenics-coach/internal/trainer"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

const bellGap = 150 * time.Millisecond

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	must("load configuration", err)
	must("create data directory", os.MkdirAll(cfg.DataDir, 0o755))

	logs := logging.New(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	logger := logs.Logger
	logger.Printf("Starting, data in %s", cfg.DataDir)

	kv := kvstore.Open(cfg.DataDir, logger)
	settingsStore := settings.NewStore(kv)
	voicePrefs := voice.NewPreferences(kv)
	historyStore := history.Open(history.DefaultPath(cfg.DataDir), time.Now, logger)
	library := content.MustBuiltin()

	speech, shutdownSpeech := newRecognizer(cfg, logger)
	dispatcher := voice.NewDispatcher(speech, voicePrefs, logger)
	scheduler := timing.NewRealScheduler(logger)

	screen, err := tcell.NewScreen()
	must("create screen", err)
	app := tview.NewApplication().SetScreen(screen)

	player := audio.NewGatedPlayer(logger, settingsStore.CueEnabled,
		audio.NewBellSink(screen, bellGap),
		audio.NewLogSink(logger))

	model := trainer.NewUIModel(logger, logs.Lines(), kv)
	model.SetSettings(settingsStore.Get())
	model.SetVoicePreferences(voicePrefs.Get())
	model.SetVoiceStatus(dispatcher.Status())
	unsubscribeSettings := settingsStore.Listen(model.SetSettings)
	unsubscribePrefs := voicePrefs.Listen(model.SetVoicePreferences)
	unsubscribeStatus := dispatcher.ListenStatus(model.SetVoiceStatus)

	workoutManager := trainer.NewWorkoutManager(trainer.NewWorkoutManagerArg{
		Library:           library,
		Session:           session.NewStore(),
		Settings:          settingsStore,
		History:           historyStore,
		Player:            player,
		Dispatcher:        dispatcher,
		Scheduler:         scheduler,
		Sink:              model,
		Logger:            logger,
		RestExtendSeconds: cfg.Rest.ExtendSeconds,
		HoldDuration:      cfg.Hold.Duration,
		QuickTapThreshold: cfg.Hold.QuickTap,
	})

	controller := trainer.NewUIController(trainer.NewUIControllerArg{
		Model:          model,
		WorkoutManager: workoutManager,
		Library:        library,
		Settings:       settingsStore,
		VoicePrefs:     voicePrefs,
		History:        historyStore,
		Scheduler:      scheduler,
		Logger:         logger,
	})

	view := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   trainer.NewCursesUIView(logger, app, model, library),
		UIModel:      model,
		UIController: controller,
		Library:      library,
		Logger:       logger,
	})

	runErr := view.Run()

	logger.Println("Shutting down")
	view.Shutdown()
	controller.Shutdown()
	unsubscribeStatus()
	unsubscribePrefs()
	unsubscribeSettings()
	player.Close()
	shutdownSpeech()
	if err := historyStore.Close(); err != nil {
		logger.Printf("Failed to close history: %v", err)
	}
	model.Shutdown()
	logger.Println("Shutdown complete")
	if err := logs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log: %v\n", err)
	}

	must("run UI", runErr)
}

// newRecognizer picks the speech source named in the configuration. The
// returned func releases it.
func newRecognizer(cfg *config.Config, logger *log.Logger) (voice.Recognizer, func()) {
	switch cfg.Voice.Recognizer {
	case config.RecognizerSocket:
		r := recognizer.NewSocketRecognizer(logger, cfg.Voice.Socket, cfg.Voice.Locale)
		r.SetHandshakeTimeout(cfg.Voice.HandshakeTimeout)
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Printf("Failed to close speech socket: %v", err)
			}
		}
	case config.RecognizerMock:
		r := recognizer.NewMockRecognizer(logger, recognizer.MockRecognizerConfig{ServerPort: cfg.Voice.MockPort})
		r.StartServer()
		return r, r.Shutdown
	default:
		return recognizer.Unsupported{}, func() {}
	}
}

func must(action string, err error) {
	if err != nil {
		panic("failed to " + action + ": " + err.Error())
	}
}
