package usecase

import (
	"fmt"
	"strings"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// Fixed user-facing responses. Warming-up must stay distinguishable from the
// exhausted-evidence message.
const (
	msgNoInformation = "Xin lỗi, tôi không tìm thấy thông tin pháp lý liên quan trong cơ sở dữ liệu."
	msgWarmingUp     = "Hệ thống đang tải mô hình ngôn ngữ, vui lòng đợi trong giây lát..."
	msgGenerationErr = "Xin lỗi, hệ thống đang gặp sự cố xử lý."
)

const graderSystemPrompt = "You are a Relevance Grader. Output only YES or NO."

func buildGraderPrompt(query, snippet string) string {
	return fmt.Sprintf(`Query: %q
Document: "%s..."

Keyword overlap alone is not enough: the document must actually contain the
answer, not merely related terms. If the query is about a quantity or time
duration (e.g. "5 years") but the document is the law article with that
number (e.g. "Điều 5"), output NO.

Does the document help answer the query?
Answer exclusively with: YES or NO.`, query, snippet)
}

const hydeSystemPrompt = "Bạn là chuyên gia luật Việt Nam."

func buildHydePrompt(query string) string {
	return fmt.Sprintf(
		"Viết một đoạn văn ngắn giả định (bằng tiếng Việt) có chứa câu trả lời cho câu hỏi: %s",
		query,
	)
}

const answerSystemPrompt = "Bạn là trợ lý luật sư Việt Nam. Nhiệm vụ duy nhất của bạn là trả lời bằng Tiếng Việt."

func buildAnswerPrompt(query string, docs []domain.RetrievedDocument) string {
	var contextBuilder strings.Builder
	for _, doc := range docs {
		contextBuilder.WriteString(fmt.Sprintf("- %s: %s\n", doc.Title, doc.Content))
	}

	return fmt.Sprintf(`TÀI LIỆU THAM KHẢO:
%s
CÂU HỎI: %q

YÊU CẦU NGHIÊM NGẶT:
1. Chỉ dựa vào tài liệu trên để trả lời.
2. Sau khi suy nghĩ xong, CÂU TRẢ LỜI CUỐI CÙNG PHẢI VIẾT BẰNG TIẾNG VIỆT.
3. Không được viết tiếng Anh ở kết quả cuối cùng.

HÃY TRẢ LỜI BẰNG TIẾNG VIỆT NGAY DƯỚI ĐÂY:`, contextBuilder.String(), query)
}
