package model

// QuizQuestion 是测验中的一道四选一选择题。
// JSON 键与持久化在 metadata.quiz 中的格式一致。
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Subject      string   `json:"subject"`
}

// QuizAnswer 记录一次提交的作答，重复提交同一题会各自留下一条记录。
type QuizAnswer struct {
	QuestionIndex int  `json:"question_index"`
	Selected      int  `json:"selected"`
	Correct       bool `json:"correct"`
}

// QuizState 是存储在会话 metadata["quiz"] 下的测验状态，
// 由测验引擎整体读出、整体写回。
type QuizState struct {
	Questions    []QuizQuestion `json:"questions"`
	CurrentIndex int            `json:"current_index"`
	Score        int            `json:"score"`
	Completed    bool           `json:"completed"`
	History      []QuizAnswer   `json:"history"`
}
