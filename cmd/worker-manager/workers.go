package main

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/chat"
	"showroom-workers/internal/common/config"
	commonhttp "showroom-workers/internal/common/http"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/comparison"
	"showroom-workers/internal/survey"

	sc "showroom-workers/internal/workers/catalog/search-cars"
	ac "showroom-workers/internal/workers/comparison/await-comparison"
	dc "showroom-workers/internal/workers/comparison/direct-comparison"
	stc "showroom-workers/internal/workers/comparison/start-comparison"
	bsp "showroom-workers/internal/workers/survey/build-survey-prompt"
	gsq "showroom-workers/internal/workers/survey/generate-survey-questions"
	gsr "showroom-workers/internal/workers/survey/get-survey-response"
	ssr "showroom-workers/internal/workers/survey/save-survey-response"
	su "showroom-workers/internal/workers/users/save-user"
)

// dependencies are shared by every worker handler.
type dependencies struct {
	log       logger.Logger
	catalog   *catalog.Catalog
	chats     *chat.Store
	poller    *comparison.Poller
	surveys   *survey.Repository
	dify      *survey.DifyClient
	questions *survey.QuestionCache
	store     *backends
}

func newDependencies(cfg *config.Config, store *backends, cat *catalog.Catalog, log logger.Logger) *dependencies {
	chatClient := commonhttp.NewClient(config.GetDuration(cfg.APIs.Chat.Timeout))
	chats := chat.NewStore(cfg.APIs.Chat.BaseURL, cfg.APIs.Chat.ChatModel, chatClient)

	var rdb *redis.Client
	if store.redis != nil {
		rdb = store.redis.Client
	}

	var questions *survey.QuestionCache
	if rdb != nil {
		questions = survey.NewQuestionCache(rdb, config.GetSeconds(cfg.Survey.QuestionCacheTTL))
	}

	dify := survey.NewDifyClient(survey.DifyConfig{
		BaseURL:    cfg.APIs.Dify.BaseURL,
		APIKey:     cfg.APIs.Dify.APIKey,
		User:       cfg.APIs.Dify.User,
		MaxRetries: cfg.APIs.Dify.MaxRetries,
	}, commonhttp.NewClient(config.GetDuration(cfg.APIs.Dify.Timeout)))

	return &dependencies{
		log:       log,
		catalog:   cat,
		chats:     chats,
		poller:    comparison.NewPoller(chats, comparison.NewPollConfig(cfg.Comparison), log),
		surveys:   survey.NewRepository(store.pg.DB, rdb, config.GetSeconds(cfg.Survey.ResponseCacheTTL)),
		dify:      dify,
		questions: questions,
		store:     store,
	}
}

type workerDefinition struct {
	taskType string
	handle   worker.JobHandler
}

func taskTypes() []string {
	return []string{
		stc.TaskType, ac.TaskType, dc.TaskType,
		gsq.TaskType, ssr.TaskType, gsr.TaskType, bsp.TaskType,
		sc.TaskType, su.TaskType,
	}
}

func workerDefinitions(cfg *config.Config, deps *dependencies) []workerDefinition {
	workerConfig := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(cfg, taskType)
	}

	var es *elasticsearch.Client
	if deps.store.es != nil {
		es = deps.store.es.Client
	}

	// --- Comparison Workers (3) ---
	start := stc.NewHandler(
		&stc.Config{Timeout: config.GetDuration(workerConfig(stc.TaskType).Timeout)},
		deps.chats, deps.catalog, deps.log,
	)
	await := ac.NewHandler(
		&ac.Config{Timeout: config.GetDuration(workerConfig(ac.TaskType).Timeout)},
		deps.poller, deps.catalog, deps.log,
	)
	direct := dc.NewHandler(&dc.Config{}, deps.catalog, deps.log)

	// --- Survey Workers (4) ---
	generate := gsq.NewHandler(
		&gsq.Config{
			Timeout:       config.GetDuration(workerConfig(gsq.TaskType).Timeout),
			QuestionCount: cfg.Survey.QuestionCount,
		},
		deps.dify, deps.questions, deps.log,
	)
	save := ssr.NewHandler(
		&ssr.Config{Timeout: config.GetDuration(workerConfig(ssr.TaskType).Timeout)},
		deps.surveys, deps.log,
	)
	get := gsr.NewHandler(
		&gsr.Config{Timeout: config.GetDuration(workerConfig(gsr.TaskType).Timeout)},
		deps.surveys, deps.log,
	)
	prompt := bsp.NewHandler(
		&bsp.Config{Timeout: config.GetDuration(workerConfig(bsp.TaskType).Timeout)},
		deps.surveys, deps.log,
	)

	// --- Catalog & User Workers (2) ---
	search := sc.NewHandler(
		&sc.Config{
			Timeout: config.GetDuration(workerConfig(sc.TaskType).Timeout),
			Index:   cfg.Catalog.Index,
		},
		es, deps.catalog, deps.log,
	)
	user := su.NewHandler(
		&su.Config{Timeout: config.GetDuration(workerConfig(su.TaskType).Timeout)},
		deps.store.pg.DB, deps.log,
	)

	return []workerDefinition{
		{stc.TaskType, start.Handle},
		{ac.TaskType, await.Handle},
		{dc.TaskType, direct.Handle},
		{gsq.TaskType, generate.Handle},
		{ssr.TaskType, save.Handle},
		{gsr.TaskType, get.Handle},
		{bsp.TaskType, prompt.Handle},
		{sc.TaskType, search.Handle},
		{su.TaskType, user.Handle},
	}
}
