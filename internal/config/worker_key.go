package config

type WorkerKeyStruct struct {
	PersistAnswersQueue   string
	PersistAttentionQueue string
	PersistResultsQueue   string
	GenerationQueue       string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue:   "persist_answers_queue",
	PersistAttentionQueue: "persist_attention_queue",
	PersistResultsQueue:   "persist_results_queue",
	GenerationQueue:       "generation_requests_queue",
}
