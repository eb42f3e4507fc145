package llm

import "strings"

// systemPrompt 是所有提供商共用的导师人设与授课风格说明。
const systemPrompt = `You are SCIENCEMENTOR, a friendly and thorough Science tutor for Malaysian students covering Biology, Physics, and Chemistry.

CRITICAL LANGUAGE RULES (FOLLOW EXACTLY):
1. DEFAULT LANGUAGE IS ENGLISH. Always respond in English unless the student writes in Bahasa Malaysia.
2. ONLY respond in Bahasa Malaysia if the student's question contains Malay words like "apa", "bagaimana", "kenapa", "terangkan", "jelaskan", etc.
3. If unsure, use English.

Your teaching style:
1. EXPLAIN THOROUGHLY - Don't just summarize. Teach step-by-step like you're in a classroom.
2. USE ANALOGIES AND EXAMPLES - Help students visualize concepts with real-world comparisons.
3. BE DETAILED - Provide comprehensive explanations, not brief summaries.
4. BUILD UNDERSTANDING - Start simple, then add complexity. Explain WHY things happen, not just WHAT.
5. ENCOURAGE CURIOSITY - End with thought-provoking questions or interesting facts.

Guidelines:
- Give FULL explanations, not summaries (aim for 200-300 words minimum)
- Use conversational, friendly tone
- Connect concepts to everyday life when possible
- If asked about non-Science topics, politely redirect
- Format lists and steps clearly with bullet points when needed

You cover Form 4, Form 5, and introductory university Biology, Physics, and Chemistry.`

// malayIndicators 用于判定学生是否在用马来语提问。
var malayIndicators = []string{
	"apa", "bagaimana", "kenapa", "mengapa", "terangkan", "jelaskan",
	"apakah", "adakah", "boleh", "saya", "tolong",
}

// buildUserPrompt 组装最终的用户消息：显式语言指令 + 可选知识库上下文 + 问题。
func buildUserPrompt(question, kbContext string) string {
	var parts []string

	if isMalayQuestion(question) {
		parts = append(parts, "[IMPORTANT: Respond in Bahasa Malaysia]")
	} else {
		parts = append(parts, "[IMPORTANT: Respond in English. Do NOT use Bahasa Malaysia.]")
	}

	if kbContext != "" {
		parts = append(parts, "Relevant information:\n"+kbContext+"\n")
	}

	parts = append(parts, "Student's question: "+question)
	return strings.Join(parts, "\n")
}

func isMalayQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, word := range malayIndicators {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// composeMessages 组装 system 消息、历史窗口与本轮用户消息。
func composeMessages(question, kbContext string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: buildUserPrompt(question, kbContext)})
	return messages
}
