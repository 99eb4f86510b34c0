package model

// Queue payloads exchanged between the API process and the background
// workers over Redis lists. Timestamps travel as Unix milliseconds so the
// payloads stay language-neutral.

// AnswerJob is one autosaved answer bound for the answer worker.
type AnswerJob struct {
	StudentID   int    `json:"student_id"`
	SessionID   string `json:"session_id"`
	QuestionID  string `json:"question_id"`
	Selected    string `json:"selected"`
	TimeSpentMs int64  `json:"time_spent_ms"`
	Timestamp   int64  `json:"timestamp"`
}

// AttentionEventJob is one distraction event inside an AttentionJob.
type AttentionEventJob struct {
	StartedAt  int64  `json:"started_at"`
	DurationMs int64  `json:"duration_ms"`
	Type       string `json:"type"`
	Severity   string `json:"severity"`
}

// AttentionJob carries a finalized attention session and its analysis to the
// attention worker.
type AttentionJob struct {
	StudentID         int                 `json:"student_id"`
	SessionID         string              `json:"session_id"`
	StartedAt         int64               `json:"started_at"`
	EndedAt           int64               `json:"ended_at"`
	FocusMs           int64               `json:"focus_ms"`
	DistractionMs     int64               `json:"distraction_ms"`
	AttentionScore    float64             `json:"attention_score"`
	GazeStability     float64             `json:"gaze_stability"`
	OverallScore      float64             `json:"overall_score"`
	FocusPercentage   int                 `json:"focus_percentage"`
	Pattern           string              `json:"pattern"`
	ComparedToAverage string              `json:"compared_to_average"`
	Events            []AttentionEventJob `json:"events"`
}

// ResultJob carries a finished session's academic outcome to the result
// worker, which writes it over the session record in bulk.
type ResultJob struct {
	StudentID         int     `json:"student_id"`
	SessionID         string  `json:"session_id"`
	AcademicScore     int     `json:"academic_score"`
	CorrectCount      int     `json:"correct_count"`
	TotalQuestions    int     `json:"total_questions"`
	CompletionPercent float64 `json:"completion_percent"`
	TimeUsedMs        int64   `json:"time_used_ms"`
	FinishedAt        int64   `json:"finished_at"`
}

// GenerationJob asks the generation worker to pre-build a question set and
// cache it, so the next session on this topic starts instantly.
type GenerationJob struct {
	StudentID      int      `json:"student_id"`
	Topic          string   `json:"topic"`
	Count          int      `json:"count"`
	Difficulty     string   `json:"difficulty"`
	GradeLevel     string   `json:"grade_level,omitempty"`
	AttentionSpan  string   `json:"attention_span,omitempty"`
	WeakSubjects   []string `json:"weak_subjects,omitempty"`
	StrongSubjects []string `json:"strong_subjects,omitempty"`
}
