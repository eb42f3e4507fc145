package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"science-mentor-go/internal/model"
	"science-mentor-go/internal/repository"
	"science-mentor-go/pkg/llm"
	"science-mentor-go/pkg/log"
)

// quizMetadataKey 是测验状态在会话 metadata 中的键。
const quizMetadataKey = "quiz"

// QuizQuestionView 是发给学生的题目视图，不携带答案与解析。
type QuizQuestionView struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Subject  string   `json:"subject,omitempty"`
}

// QuizSubmitResult 是一次作答的判定结果。
type QuizSubmitResult struct {
	IsCorrect    bool   `json:"is_correct"`
	CorrectIndex int    `json:"correct_index"`
	Explanation  string `json:"explanation"`
	Score        int    `json:"score"`
}

// QuizAdvanceResult 是推进到下一题的结果：要么是下一题，要么是完成摘要。
type QuizAdvanceResult struct {
	Completed bool              `json:"completed"`
	Question  *QuizQuestionView `json:"question,omitempty"`
	Score     int               `json:"score"`
	Total     int               `json:"total"`
}

// QuizService 管理存储在会话元数据中的测验状态机。
// 状态读出、修改、写回是非原子的读改写，同一会话需要串行调用。
type QuizService interface {
	// EnsureStartable 校验会话可以开始测验：会话存在且已选择学科。
	// 在调用代价高的题目生成之前先走这里。
	EnsureStartable(ctx context.Context, sessionID string) error
	GenerateQuestions(ctx context.Context, providerName, subject, topic, difficulty string, count int) ([]model.QuizQuestion, error)
	Start(ctx context.Context, sessionID string, questions []model.QuizQuestion) (*QuizQuestionView, error)
	Submit(ctx context.Context, sessionID string, selected int) (*QuizSubmitResult, error)
	Advance(ctx context.Context, sessionID string) (*QuizAdvanceResult, error)
}

type quizService struct {
	sessions repository.SessionRepository
	factory  *llm.Factory
}

// NewQuizService 创建测验服务。
func NewQuizService(sessions repository.SessionRepository, factory *llm.Factory) QuizService {
	return &quizService{sessions: sessions, factory: factory}
}

// GenerateQuestions 让模型生成一组选择题并解析其 JSON 输出。
// 模型偶尔会包裹 markdown 代码块或附加说明文字，解析前先做清洗。
func (s *quizService) GenerateQuestions(ctx context.Context, providerName, subject, topic, difficulty string, count int) ([]model.QuizQuestion, error) {
	if count <= 0 {
		count = 5
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	provider, err := s.factory.Get(providerName)
	if err != nil {
		return nil, err
	}

	scope := subject
	if topic != "" {
		scope = fmt.Sprintf("%s (topic: %s)", subject, topic)
	}
	prompt := fmt.Sprintf(`Generate exactly %d multiple-choice quiz questions about %s at %s difficulty for Malaysian Form 4/Form 5 students.

Return ONLY a JSON array, no other text. Each element must have:
- "question": the question text
- "options": an array of exactly 4 answer strings
- "correct_index": the 0-based index of the correct option
- "explanation": a one or two sentence explanation of the answer
- "subject": "%s"`, count, scope, difficulty, subject)

	raw, err := provider.Generate(ctx, prompt, "", nil)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	questions, err := parseQuizQuestions(raw)
	if err != nil {
		log.Errorf("quiz generation returned unparseable output: %v", err)
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// parseQuizQuestions 从模型输出中提取并解析 JSON 题目数组。
func parseQuizQuestions(raw string) ([]model.QuizQuestion, error) {
	text := strings.TrimSpace(raw)

	// 去掉 ```json ... ``` 包裹
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// 截取最外层的 [...]，容忍数组前后的说明文字
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in model output")
	}
	text = text[start : end+1]

	var questions []model.QuizQuestion
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("invalid quiz JSON: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model produced an empty question list")
	}
	for i, q := range questions {
		if q.Question == "" || len(q.Options) == 0 {
			return nil, fmt.Errorf("question %d is missing text or options", i)
		}
	}
	return questions, nil
}

// EnsureStartable 校验开始测验的前置条件。
func (s *quizService) EnsureStartable(ctx context.Context, sessionID string) error {
	exists, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}

	subject, err := s.sessions.GetSubject(ctx, sessionID)
	if err != nil {
		return err
	}
	if subject == "" {
		return ErrNoSubject
	}
	return nil
}

// Start 在会话上开始新测验，覆盖已有的测验状态，返回第一题。
// 会话必须已选择学科。
func (s *quizService) Start(ctx context.Context, sessionID string, questions []model.QuizQuestion) (*QuizQuestionView, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("cannot start a quiz with no questions")
	}
	if err := s.EnsureStartable(ctx, sessionID); err != nil {
		return nil, err
	}

	state := model.QuizState{
		Questions:    questions,
		CurrentIndex: 0,
		Score:        0,
		Completed:    false,
		History:      []model.QuizAnswer{},
	}
	if err := s.writeState(ctx, sessionID, &state); err != nil {
		return nil, err
	}
	return questionView(&state, 0), nil
}

// Submit 判定当前题的作答并持久化。同一题重复提交会重复计入
// history 与分数，去重由调用方负责。
func (s *quizService) Submit(ctx context.Context, sessionID string, selected int) (*QuizSubmitResult, error) {
	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Completed {
		return nil, ErrNoActiveQuiz
	}
	if state.CurrentIndex >= len(state.Questions) {
		return nil, ErrQuizFinished
	}

	question := state.Questions[state.CurrentIndex]
	correct := selected == question.CorrectIndex
	if correct {
		state.Score++
	}
	state.History = append(state.History, model.QuizAnswer{
		QuestionIndex: state.CurrentIndex,
		Selected:      selected,
		Correct:       correct,
	})

	if err := s.writeState(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return &QuizSubmitResult{
		IsCorrect:    correct,
		CorrectIndex: question.CorrectIndex,
		Explanation:  question.Explanation,
		Score:        state.Score,
	}, nil
}

// Advance 推进到下一题。越过最后一题时把测验标记为完成并返回摘要；
// 对已完成的测验可以继续调用，始终返回同一份摘要。
func (s *quizService) Advance(ctx context.Context, sessionID string) (*QuizAdvanceResult, error) {
	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Completed {
		return &QuizAdvanceResult{
			Completed: true,
			Score:     state.Score,
			Total:     len(state.Questions),
		}, nil
	}

	state.CurrentIndex++
	if state.CurrentIndex >= len(state.Questions) {
		state.Completed = true
		if err := s.writeState(ctx, sessionID, state); err != nil {
			return nil, err
		}
		return &QuizAdvanceResult{
			Completed: true,
			Score:     state.Score,
			Total:     len(state.Questions),
		}, nil
	}

	if err := s.writeState(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return &QuizAdvanceResult{
		Completed: false,
		Question:  questionView(state, state.CurrentIndex),
		Score:     state.Score,
		Total:     len(state.Questions),
	}, nil
}

// loadState 从会话元数据中读出测验状态。只判定测验是否存在；
// 完成态的处理由 Submit（拒绝）与 Advance（返回摘要）各自决定。
func (s *quizService) loadState(ctx context.Context, sessionID string) (*model.QuizState, error) {
	exists, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	metadata, err := s.sessions.GetMetadata(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rawState, ok := metadata[quizMetadataKey]
	if !ok {
		return nil, ErrNoActiveQuiz
	}

	// metadata 解码出来是 map[string]interface{}，经一次重编码转为类型化状态
	buf, err := json.Marshal(rawState)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz state failed: %w", err)
	}
	var state model.QuizState
	if err := json.Unmarshal(buf, &state); err != nil {
		return nil, fmt.Errorf("unmarshal quiz state failed: %w", err)
	}
	return &state, nil
}

func (s *quizService) writeState(ctx context.Context, sessionID string, state *model.QuizState) error {
	found, err := s.sessions.UpdateMetadataKey(ctx, sessionID, quizMetadataKey, state)
	if err != nil {
		return fmt.Errorf("persist quiz state failed: %w", err)
	}
	if !found {
		return ErrSessionNotFound
	}
	return nil
}

func questionView(state *model.QuizState, index int) *QuizQuestionView {
	q := state.Questions[index]
	return &QuizQuestionView{
		Index:    index,
		Total:    len(state.Questions),
		Question: q.Question,
		Options:  q.Options,
		Subject:  q.Subject,
	}
}
