package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vidscribe/internal/api"
	"github.com/phrazzld/vidscribe/internal/config"
	"github.com/phrazzld/vidscribe/internal/credential"
	"github.com/phrazzld/vidscribe/internal/events"
	"github.com/phrazzld/vidscribe/internal/generation"
	"github.com/phrazzld/vidscribe/internal/platform/gemini"
	"github.com/phrazzld/vidscribe/internal/platform/whisper"
	"github.com/phrazzld/vidscribe/internal/platform/ytdlp"
	"github.com/phrazzld/vidscribe/internal/service"
	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
)

// application holds the shared dependencies of the server so they can be
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	projectStore store.ProjectStore
	tagStore     store.TagStore

	credentials *credential.Pool
	registry    *task.Registry
	queue       *task.TaskQueue
	runner      *task.Runner

	videoService *service.VideoService
	chatService  *service.ChatService
}

// newApplication connects to the database and wires every component. The
// task runner is started before returning.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &application{config: cfg, logger: logger, db: db}
	if err := app.wire(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) wire(ctx context.Context) error {
	cfg := app.config
	logger := app.logger

	projects, tags, err := newStores(cfg.Database.Driver, app.db, logger)
	if err != nil {
		return fmt.Errorf("failed to create stores: %w", err)
	}
	if err := tags.SeedTags(ctx, cfg.Tags.Defaults); err != nil {
		return fmt.Errorf("failed to seed default tags: %w", err)
	}
	app.projectStore = projects
	app.tagStore = tags

	app.credentials = credential.NewPool(cfg.LLM.GeminiAPIKeys, credential.Options{
		SwitchInterval: cfg.LLM.SwitchInterval,
		Logger:         logger,
	})
	if len(cfg.LLM.GeminiAPIKeys) == 0 {
		logger.Warn("no Gemini API keys configured, summaries and chat will fail")
	}

	model, err := gemini.NewModel(app.credentials, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create language model: %w", err)
	}
	generator, err := generation.NewService(model, generation.NewPromptSet(cfg.LLM.PromptsPath, logger), logger)
	if err != nil {
		return fmt.Errorf("failed to create generation service: %w", err)
	}

	media, err := ytdlp.NewClient(cfg.Media, logger)
	if err != nil {
		return fmt.Errorf("failed to create yt-dlp client: %w", err)
	}
	transcriber, err := whisper.NewTranscriber(cfg.Media, media, logger)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	app.registry = task.NewRegistry()
	app.queue = task.NewTaskQueue(logger)
	emitter := events.NewInMemoryEventEmitter(logger)

	recorder, err := service.NewProjectRecorder(projects, app.registry, logger)
	if err != nil {
		return fmt.Errorf("failed to create project recorder: %w", err)
	}
	emitter.RegisterHandler(recorder)

	classifier, err := service.NewTagClassifier(generator, tags, logger)
	if err != nil {
		return fmt.Errorf("failed to create tag classifier: %w", err)
	}

	pipeline, err := task.NewPipeline(task.PipelineDeps{
		Metadata:    media,
		Subtitles:   media,
		Transcriber: transcriber,
		Summarizer:  generator,
		Classifier:  classifier,
	}, app.registry, emitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	app.runner, err = task.NewRunner(app.registry, app.queue, pipeline, emitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create task runner: %w", err)
	}
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	admission, err := task.NewAdmission(app.registry, app.queue, emitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create task admission: %w", err)
	}

	app.chatService, err = service.NewChatService(generator, projects, logger)
	if err != nil {
		return fmt.Errorf("failed to create chat service: %w", err)
	}

	app.videoService, err = service.NewVideoService(service.VideoServiceDeps{
		Submitter:  admission,
		Tasks:      app.registry,
		Projects:   projects,
		Tags:       tags,
		Classifier: classifier,
		Sessions:   app.chatService,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create video service: %w", err)
	}

	logger.Info("application initialized",
		"credentials", app.credentials.Status().Total,
		"default_tags", len(cfg.Tags.Defaults))
	return nil
}

// setupRouter builds the HTTP handler tree.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Videos: api.NewVideoHandler(app.videoService, app.logger),
		Tags:   api.NewTagHandler(app.videoService, app.logger),
		Chat:   api.NewChatHandler(app.chatService, app.logger),
		Logger: app.logger,
	})
}

// Run serves HTTP until ctx is cancelled and then releases every resource.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	return app.serve(ctx, app.setupRouter())
}

// cleanup stops background work and closes the database. It is safe to call
// on a partially wired application.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.queue != nil {
		app.queue.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
		app.db = nil
	}
	app.logger.Info("application resources released")
}
