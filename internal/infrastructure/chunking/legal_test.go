package chunking

import (
	"strings"
	"testing"
)

const sampleStatute = `LUẬT DOANH NGHIỆP

Chương I
QUY ĐỊNH CHUNG

Điều 1. Phạm vi điều chỉnh
Luật này quy định về việc thành lập, tổ chức quản lý, tổ chức lại, giải thể và hoạt động có liên quan của doanh nghiệp.

Điều 2. Đối tượng áp dụng
1. Doanh nghiệp.
2. Cơ quan, tổ chức, cá nhân có liên quan.

Chương II
THÀNH LẬP DOANH NGHIỆP

Điều 17. Quyền thành lập doanh nghiệp
Tổ chức, cá nhân có quyền thành lập và quản lý doanh nghiệp tại Việt Nam theo quy định của Luật này.`

func TestSplitFollowsLegalStructure(t *testing.T) {
	splitter := NewLegalSplitter(1000, 200)
	chunks := splitter.Split(sampleStatute)

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks (preamble + 3 articles), got %d: %+v", len(chunks), chunks)
	}

	// Preamble before the first article carries no article label.
	if chunks[0].Article != "" {
		t.Fatalf("preamble chunk must have no article, got %q", chunks[0].Article)
	}

	wantArticles := []string{"Điều 1", "Điều 2", "Điều 17"}
	for i, want := range wantArticles {
		if chunks[i+1].Article != want {
			t.Fatalf("chunk %d article = %q, want %q", i+1, chunks[i+1].Article, want)
		}
	}

	if !strings.HasPrefix(chunks[1].Chapter, "Chương I") {
		t.Fatalf("unexpected chapter on article 1: %q", chunks[1].Chapter)
	}
	if !strings.HasPrefix(chunks[3].Chapter, "Chương II") {
		t.Fatalf("chapter must advance with headings, got %q", chunks[3].Chapter)
	}

	if !strings.Contains(chunks[1].Text, "Phạm vi điều chỉnh") {
		t.Fatalf("article heading must stay inside the chunk text: %q", chunks[1].Text)
	}
}

func TestSplitDefaultsChapterWhenMissing(t *testing.T) {
	splitter := NewLegalSplitter(1000, 200)
	chunks := splitter.Split("Điều 1. Nội dung\nVăn bản không có chương.")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Chapter != defaultChapter {
		t.Fatalf("expected default chapter %q, got %q", defaultChapter, chunks[0].Chapter)
	}
}

func TestSplitMarkdownHeadings(t *testing.T) {
	splitter := NewLegalSplitter(1000, 200)
	chunks := splitter.Split("# Chương I NHỮNG QUY ĐỊNH CHUNG\n## Điều 3. Giải thích từ ngữ\nNội dung giải thích.")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Article != "Điều 3" {
		t.Fatalf("markdown article heading must be recognized, got %q", chunks[0].Article)
	}
	if strings.Contains(chunks[0].Chapter, "#") {
		t.Fatalf("chapter label must be cleaned, got %q", chunks[0].Chapter)
	}
}

func TestSplitOversizedArticle(t *testing.T) {
	splitter := NewLegalSplitter(100, 20)

	sentence := "Câu văn lặp lại nhiều lần để vượt kích thước. "
	text := "Điều 9. Quy định dài\n" + strings.Repeat(sentence, 20)
	chunks := splitter.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("oversized article must split into multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Article != "Điều 9" {
			t.Fatalf("chunk %d lost its article label: %q", i, chunk.Article)
		}
		if n := len([]rune(chunk.Text)); n > 100 {
			t.Fatalf("chunk %d exceeds size bound: %d runes", i, n)
		}
	}
}

func TestHardSplitOverlap(t *testing.T) {
	splitter := NewLegalSplitter(10, 4)

	pieces := splitter.hardSplit(strings.Repeat("a", 25))
	if len(pieces) != 4 {
		t.Fatalf("expected 4 windows, got %d: %v", len(pieces), pieces)
	}
	if pieces[0] != strings.Repeat("a", 10) {
		t.Fatalf("unexpected first window %q", pieces[0])
	}
	if pieces[3] != strings.Repeat("a", 7) {
		t.Fatalf("unexpected last window %q", pieces[3])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	splitter := NewLegalSplitter(1000, 200)
	if chunks := splitter.Split("   \n\n  "); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
