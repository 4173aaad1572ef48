package inlineimg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeUploader hands out sequential URLs and can be told to fail for a subtype.
type fakeUploader struct {
	mu       sync.Mutex
	calls    int
	failFor  string
	received [][]byte
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, subtype string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if subtype == f.failFor {
		return "", errors.New("storage unavailable")
	}
	f.received = append(f.received, data)
	return fmt.Sprintf("/uploads/%d.%s", f.calls, subtype), nil
}

func TestRewriteNoImages(t *testing.T) {
	up := &fakeUploader{}
	in := "<p>text</p>"
	if got := (&Rewriter{}).Rewrite(context.Background(), in, up); got != in {
		t.Fatalf("got %q, want input unchanged", got)
	}
	if up.calls != 0 {
		t.Fatalf("uploader called %d times", up.calls)
	}
}

func TestRewriteSingleImage(t *testing.T) {
	up := UploaderFunc(func(_ context.Context, data []byte, subtype string) (string, error) {
		if subtype != "png" {
			t.Errorf("subtype = %q, want png", subtype)
		}
		if len(data) != 3 {
			t.Errorf("decoded %d bytes, want 3", len(data))
		}
		return "/uploads/x.png", nil
	})
	got := (&Rewriter{}).Rewrite(context.Background(), `<img src="data:image/png;base64,AAAA">`, up)
	if want := `<img src="/uploads/x.png">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRewritePreservesOtherAttributes(t *testing.T) {
	up := UploaderFunc(func(context.Context, []byte, string) (string, error) {
		return "/uploads/a.jpeg", nil
	})
	in := `<p>before</p><img class="wide" SRC="data:image/jpeg;base64,AAAA" alt="A &amp; B" data-id=7/><p>after</p>`
	want := `<p>before</p><img class="wide" src="/uploads/a.jpeg" alt="A &amp; B" data-id=7/><p>after</p>`
	if got := (&Rewriter{}).Rewrite(context.Background(), in, up); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestRewritePartialFailure(t *testing.T) {
	up := &fakeUploader{failFor: "gif"}
	in := `<img src="data:image/png;base64,AAAA"><img src="data:image/gif;base64,AAAA">`

	got, rep := (&Rewriter{}).RewriteReport(context.Background(), in, up)

	if strings.Count(got, "data:image/") != 1 {
		t.Fatalf("want exactly one embedded image left, got %q", got)
	}
	if !strings.Contains(got, `<img src="data:image/gif;base64,AAAA">`) {
		t.Fatalf("failed image not preserved: %q", got)
	}
	if !strings.Contains(got, `src="/uploads/`) {
		t.Fatalf("successful image not rewritten: %q", got)
	}
	if rep.Found != 2 || rep.Uploaded != 1 || len(rep.Failures) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	var upErr *UploadError
	if !errors.As(rep.Failures[0], &upErr) || upErr.Index != 1 {
		t.Fatalf("failure = %v, want UploadError for image 1", rep.Failures[0])
	}
}

func TestRewriteBadBase64(t *testing.T) {
	up := &fakeUploader{}
	in := `<img src="data:image/png;base64,@@@"><img src="data:image/png;base64,AAAA">`

	got, rep := (&Rewriter{}).RewriteReport(context.Background(), in, up)

	if !strings.HasPrefix(got, `<img src="data:image/png;base64,@@@">`) {
		t.Fatalf("undecodable image altered: %q", got)
	}
	if up.calls != 1 {
		t.Fatalf("uploader called %d times, want 1", up.calls)
	}
	var decErr *ImageDecodeError
	if len(rep.Failures) != 1 || !errors.As(rep.Failures[0], &decErr) {
		t.Fatalf("failures = %v, want one ImageDecodeError", rep.Failures)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	up := &fakeUploader{}
	in := `<h1>t</h1><img src="data:image/png;base64,AAAA"><img alt="x" src="data:image/webp;base64,AAAA">`
	rw := &Rewriter{Concurrency: 4}

	once := rw.Rewrite(context.Background(), in, up)
	calls := up.calls
	twice := rw.Rewrite(context.Background(), once, up)

	if once != twice {
		t.Fatalf("second pass changed output:\n%q\n%q", once, twice)
	}
	if up.calls != calls {
		t.Fatalf("second pass uploaded %d images", up.calls-calls)
	}
	if HasInlineImages(once) {
		t.Fatalf("inline images remain: %q", once)
	}
}

func TestRewriteConcurrentKeepsOrder(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<p>%d</p><img data-n="%d" src="data:image/png;base64,AAAA">`, i, i)
	}
	up := UploaderFunc(func(_ context.Context, _ []byte, _ string) (string, error) {
		return "/uploads/same.png", nil
	})

	got := (&Rewriter{Concurrency: 8}).Rewrite(context.Background(), b.String(), up)

	for i := 0; i < 20; i++ {
		want := fmt.Sprintf(`<p>%d</p><img data-n="%d" src="/uploads/same.png">`, i, i)
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in output", want)
		}
	}
}

func TestRewriteIgnoresNonImgTags(t *testing.T) {
	up := &fakeUploader{}
	in := `<p>data:image/png;base64,AAAA</p><a href="data:image/png;base64,AAAA">x</a>`
	if got := (&Rewriter{}).Rewrite(context.Background(), in, up); got != in {
		t.Fatalf("got %q, want unchanged", got)
	}
	if up.calls != 0 {
		t.Fatalf("uploader called %d times", up.calls)
	}
}

func TestRewriteEscapesURL(t *testing.T) {
	up := UploaderFunc(func(context.Context, []byte, string) (string, error) {
		return `/uploads/a"b.png`, nil
	})
	got := (&Rewriter{}).Rewrite(context.Background(), `<img src="data:image/png;base64,AAAA">`, up)
	if want := `<img src="/uploads/a&#34;b.png">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRewriteIgnoresSrcTextInsideOtherAttributes(t *testing.T) {
	up := &fakeUploader{}
	in := `<img alt='see src="data:image/png;base64,AAAA"' src="data:image/png;base64,BBBB">`
	want := `<img alt='see src="data:image/png;base64,AAAA"' src="/uploads/1.png">`

	got := (&Rewriter{}).Rewrite(context.Background(), in, up)
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
	if up.calls != 1 || string(up.received[0]) != "\x04\x10\x41" {
		t.Fatalf("uploaded %d images, first %v; want the src payload only", up.calls, up.received)
	}
	if HasInlineImages(got) {
		t.Fatalf("rewritten document still reports inline images: %q", got)
	}
	if again := (&Rewriter{}).Rewrite(context.Background(), got, up); again != got || up.calls != 1 {
		t.Fatalf("second pass changed output or uploaded again: %q, calls %d", again, up.calls)
	}
}

func TestRewriteSingleQuotedAndUnquotedSrc(t *testing.T) {
	up := &fakeUploader{}
	in := `<img title="src=x" src='data:image/png;base64,AAAA'><img src=data:image/gif;base64,AAAA alt=x>`
	want := `<img title="src=x" src="/uploads/1.png"><img src="/uploads/2.gif" alt=x>`
	if got := (&Rewriter{}).Rewrite(context.Background(), in, up); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestPreserveMasksAndRestoresEmbeddedSources(t *testing.T) {
	in := `<p>a</p><img src="data:image/png;base64,@@@" alt="x"><img src="/uploads/a.png"><img src="data:image/png;base64,AA AA">`

	masked, restore := Preserve(in)
	if strings.Contains(masked, "data:image/") {
		t.Fatalf("masked document still embeds images: %q", masked)
	}
	if !strings.Contains(masked, `<img src="/uploads/a.png">`) {
		t.Fatalf("hosted image touched: %q", masked)
	}
	if got := restore(masked); got != in {
		t.Fatalf("restore\n got  %q\nwant %q", got, in)
	}
}

func TestPreserveEscapesRestoredValue(t *testing.T) {
	in := `<img src='data:image/png;base64,x"onerror=alert(1)'>`
	masked, restore := Preserve(in)
	want := `<img src="data:image/png;base64,x&#34;onerror=alert(1)">`
	if got := restore(masked); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestPreserveWithoutImages(t *testing.T) {
	in := `<p>data:image/png;base64,AAAA</p>`
	masked, restore := Preserve(in)
	if masked != in || restore(in) != in {
		t.Fatalf("document without img tags changed: %q", masked)
	}
}

func TestExternalizeDataURI(t *testing.T) {
	up := &fakeUploader{}
	got, err := ExternalizeDataURI(context.Background(), "data:image/jpeg;base64,AAAA", up)
	if err != nil {
		t.Fatalf("ExternalizeDataURI: %v", err)
	}
	if got != "/uploads/1.jpeg" {
		t.Fatalf("got %q", got)
	}

	plain := "/uploads/existing.png"
	got, err = ExternalizeDataURI(context.Background(), plain, up)
	if err != nil || got != plain {
		t.Fatalf("got %q, %v; want value unchanged", got, err)
	}
	if up.calls != 1 {
		t.Fatalf("uploader called %d times, want 1", up.calls)
	}

	if _, err := ExternalizeDataURI(context.Background(), "data:image/png,notbase64", up); err == nil {
		t.Fatal("expected error for non-base64 data URI")
	}
}

func TestImageSources(t *testing.T) {
	in := `<p><img src="/uploads/a.png"></p><IMG alt="b" SRC="/uploads/b.jpg"/><img alt="no src">`
	got := ImageSources(in)
	if len(got) != 2 || got[0] != "/uploads/a.png" || got[1] != "/uploads/b.jpg" {
		t.Fatalf("got %v", got)
	}
}
