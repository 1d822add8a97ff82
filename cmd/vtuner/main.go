package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/vtuner/extension/internal/api"
	"github.com/vtuner/extension/internal/config"
	"github.com/vtuner/extension/internal/database"
	"github.com/vtuner/extension/internal/journal"
	"github.com/vtuner/extension/internal/logging"
	"github.com/vtuner/extension/internal/telemetry"
)

// CurrentExtensionVersion can be set at build time via ldflags.
var (
	CurrentExtensionVersion string = "0.0.1"
	ExtensionName           string = "vtuner"
)

// Services shared between the command paths.
var (
	logManager       *logging.Manager
	Logger           *slog.Logger
	dbManager        *database.Manager
	journalService   *journal.Service
	telemetryManager *telemetry.Manager

	SessionStartTime time.Time = time.Now()
)

func main() {
	configDir := flag.String("config", ".", "directory containing vtuner.cfg.json")
	ticks := flag.Int("ticks", 1800, "simulation ticks to run in demo mode")
	exportID := flag.Uint("export", 0, "export the given journal session and exit")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
	}

	setupLogging()
	defer logManager.Close()

	Logger.Info("Starting up",
		"version", CurrentExtensionVersion,
		"config", *configDir)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	dbManager = database.NewManager(zlog)
	if err := dbManager.Connect(); err != nil {
		Logger.Error("database unavailable, journal disabled", "error", err)
	}
	journalService = journal.NewService(dbManager.DB, zlog)
	if dbManager.IsValid {
		if err := journalService.Setup(); err != nil {
			Logger.Error("journal setup failed", "error", err)
			dbManager.IsValid = false
		}
	}

	telemetryManager = telemetry.NewManager(zlog, viper.GetString("influx.backupPath"))
	if err := telemetryManager.Connect(); err != nil {
		Logger.Info("telemetry disabled", "reason", err)
		telemetryManager = nil
	}

	if *exportID > 0 {
		if err := exportSession(*exportID); err != nil {
			Logger.Error("export failed", "session", *exportID, "error", err)
			os.Exit(1)
		}
		return
	}

	runDemo(*ticks)
}

func setupLogging() {
	logsDir := viper.GetString("logsDir")
	_ = os.MkdirAll(logsDir, 0755)

	var logFile *os.File
	logPath := logging.FilePath(logsDir, ExtensionName, SessionStartTime)
	logFile, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create log file %s: %v\n", logPath, err)
		logFile = nil
	}

	graylogAddr := ""
	if viper.GetBool("graylog.enabled") {
		graylogAddr = viper.GetString("graylog.address")
	}

	logManager = logging.NewManager()
	if logFile != nil {
		logManager.Setup(logFile, viper.GetString("logLevel"), graylogAddr)
	} else {
		logManager.Setup(nil, viper.GetString("logLevel"), graylogAddr)
	}
	Logger = logManager.Logger()
}

// exportSession writes a session journal to disk and uploads it when the
// upload target is configured.
func exportSession(sessionID uint) error {
	if !dbManager.IsValid {
		return fmt.Errorf("no database connection")
	}

	path := filepath.Join(".", fmt.Sprintf("vtuner_session_%d.json.gz", sessionID))
	if err := journalService.Export(sessionID, path); err != nil {
		return err
	}
	Logger.Info("session exported", "session", sessionID, "path", path)

	if !viper.GetBool("upload.enabled") {
		return nil
	}

	client := api.New(viper.GetString("upload.serverUrl"), viper.GetString("upload.apiKey"))
	if err := client.Healthcheck(); err != nil {
		return fmt.Errorf("upload server unreachable: %w", err)
	}

	var sess journal.Session
	if err := dbManager.DB.First(&sess, sessionID).Error; err != nil {
		return err
	}
	err := client.Upload(path, api.UploadMetadata{
		VehicleName:     sess.VehicleName,
		WorldName:       sess.WorldName,
		SessionDuration: sess.DurationSec,
		Tag:             sess.SessionName,
	})
	if err != nil {
		return err
	}
	Logger.Info("session uploaded", "session", sessionID)
	return nil
}
