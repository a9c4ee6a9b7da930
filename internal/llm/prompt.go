package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
)

// maxPromptRunes bounds how much OCR text is sent to the model.
const maxPromptRunes = 3000

const systemPrompt = "당신은 공연 티켓 OCR 텍스트에서 정보를 추출하는 파서입니다. 반드시 순수 JSON 객체만 출력하세요."

// BuildCompactPrompt asks for only the fields the model is sure about; unsure keys are omitted.
func BuildCompactPrompt(ocrText string, allowed []string) string {
	var b strings.Builder
	b.WriteString("아래 OCR 텍스트에서 다음 필드를 JSON으로 추출하세요.\n")
	b.WriteString("키: " + describeKeys(allowed) + "\n\n")
	b.WriteString("규칙:\n")
	b.WriteString("- 확실한 값만 포함(없거나 모호하면 키 자체를 생략)\n")
	b.WriteString("- 좌석 오인식 교정 허용: \"14일\" → \"14열\"\n")
	b.WriteString("- 순수 JSON만 출력\n\n")
	b.WriteString("OCR 텍스트:\n")
	b.WriteString(clip(ocrText))
	return b.String()
}

// BuildStructuredPrompt asks for every field, with "" for values the model cannot determine.
func BuildStructuredPrompt(ocrText string, allowed []string) string {
	var b strings.Builder
	b.WriteString("아래 OCR 텍스트에서 공연 정보를 JSON으로 추출하세요.\n")
	b.WriteString("필드 키: " + describeKeys(allowed) + "\n\n")
	b.WriteString("규칙:\n")
	b.WriteString("- 일반적인 표기 관례에 따라 합리적 정규화 허용\n")
	b.WriteString("  (예: \"2022년 10월 15일(토) 6:00 pm\" → date:\"2022-10-15\", time:\"18:00\")\n")
	b.WriteString("- 값이 애매하면 빈 문자열(\"\")로 둡니다. (키는 유지)\n")
	b.WriteString("- 반드시 순수 JSON만 출력하세요. (설명/코드블록 금지)\n\n")
	b.WriteString("예시 입력:\n")
	b.WriteString("\"2023년 7월 9일 오후 7시, 블루스퀘어 신한카드홀, 뮤지컬 레베카, 출연: 홍길동\"\n")
	b.WriteString("예시 출력:\n")
	b.WriteString(`{"title":"뮤지컬 레베카","date":"2023-07-09","time":"19:00","venue":"블루스퀘어 신한카드홀","artist":"홍길동"}` + "\n\n")
	b.WriteString("OCR 텍스트:\n")
	b.WriteString(clip(ocrText))
	return b.String()
}

// BuildSummaryPrompt asks for a short Korean summary of a post-show voice memo.
func BuildSummaryPrompt(transcript string) string {
	return "다음은 공연 관람 후 음성 기록입니다. 핵심 내용을 3~5문장으로 간결하고 자연스럽게 요약해 주세요.\n" +
		"- 불필요한 중복 제거\n" +
		"- 감상 포인트/인상 깊은 장면/배우·연출 특징 중심\n\n" +
		"원문:\n" + clip(transcript)
}

// BuildQuestionsPrompt asks for 6 to 8 follow-up questions about a post-show
// voice memo, as a bare JSON array of strings.
func BuildQuestionsPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("다음은 한 관객의 공연 관람 후기 원문입니다. 이 후기를 바탕으로\n")
	b.WriteString("관람자에게 되돌려 물어볼 수 있는 '깊이 있는 후속 질문'을 한국어로 6~8개 생성하세요.\n\n")
	b.WriteString("출력 형식은 반드시 JSON 배열(문자열 목록)만으로 주세요. 설명/서론/번호/코드블록 금지.\n")
	b.WriteString("질문 톤: 공손하고 대화형(예: \"~은 어떠셨나요?\", \"~가 인상 깊으셨다고 하셨는데, 구체적으로 어떤 점이었나요?\").\n")
	b.WriteString("질문 범주(섞어서 생성):\n")
	b.WriteString("  - 인상 깊은 장면/대사/연출에 대한 구체적 탐색\n")
	b.WriteString("  - 배우의 연기·가창·호흡에서 느낀 점\n")
	b.WriteString("  - 음악/사운드/무대·조명/의상 등 요소가 감상에 미친 영향\n")
	b.WriteString("  - 주제/메시지 해석, 개인적 경험과의 연결\n")
	b.WriteString("  - 아쉬웠던 점과 개선 아이디어\n")
	b.WriteString("  - 재관람/추천 의향과 그 이유\n\n")
	b.WriteString("원문:\n")
	b.WriteString(clip(transcript))
	return b.String()
}

var keyHints = map[string]string{
	constants.FieldTitle:  "title(공연 제목)",
	constants.FieldDate:   "date(YYYY-MM-DD)",
	constants.FieldTime:   "time(24h HH:mm)",
	constants.FieldVenue:  "venue(공연 장소)",
	constants.FieldArtist: "artist(아티스트)",
	constants.FieldSeat:   "seat(좌석)",
}

func describeKeys(allowed []string) string {
	parts := make([]string, 0, len(allowed))
	for _, k := range allowed {
		if h, ok := keyHints[k]; ok {
			parts = append(parts, h)
		} else {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, ", ")
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > maxPromptRunes {
		return string(r[:maxPromptRunes])
	}
	return s
}

// RequestCandidate asks c for a JSON candidate for req. The returned string is
// raw model output; callers treat it as untrusted.
func RequestCandidate(ctx context.Context, c Completer, req ExtractRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm: no completer configured")
	}
	user := BuildCompactPrompt(req.OCRText, req.Allowed)
	if req.Mode == constants.ModeDirect {
		user = BuildStructuredPrompt(req.OCRText, req.Allowed)
	}
	return c.Complete(ctx, CompletionRequest{
		System:     systemPrompt,
		User:       user,
		JSONObject: true,
	})
}

// Summarize returns a short summary of a transcript.
func Summarize(ctx context.Context, c Completer, transcript string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm: no completer configured")
	}
	out, err := c.Complete(ctx, CompletionRequest{User: BuildSummaryPrompt(transcript)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// maxQuestions caps how many follow-up questions are kept from one reply.
const maxQuestions = 8

// GenerateQuestions asks c for follow-up questions about a transcript. Only
// the completion call can fail; an unusable reply yields an empty list.
func GenerateQuestions(ctx context.Context, c Completer, transcript string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("llm: no completer configured")
	}
	out, err := c.Complete(ctx, CompletionRequest{
		System: "반드시 JSON 배열만 출력하세요.",
		User:   BuildQuestionsPrompt(transcript),
	})
	if err != nil {
		return nil, err
	}
	return ParseQuestions(out), nil
}

// ParseQuestions reads a model reply as a JSON array of strings. Fences and
// prose around the array are tolerated; non-string and blank items are
// skipped. Anything else yields an empty, non-nil list.
func ParseQuestions(raw string) []string {
	qs := []string{}
	s := fields.NormalizeArray(raw)
	if !gjson.Valid(s) {
		return qs
	}
	doc := gjson.Parse(s)
	if !doc.IsArray() {
		return qs
	}
	doc.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.String {
			return true
		}
		if q := strings.TrimSpace(v.String()); q != "" {
			qs = append(qs, q)
		}
		return len(qs) < maxQuestions
	})
	return qs
}
