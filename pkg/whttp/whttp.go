package whttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode  int
	ContentType string
	Body        []byte
	// HTTPTitle and HasPasswordField are only set for HTML responses.
	HTTPTitle        string
	HasPasswordField bool
}

// IsHTML reports whether the server answered with an HTML page.
func (r *WHTTPRes) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Timeout  time.Duration
	RetryMax int
	Logger   interface{} // retryablehttp.Logger or retryablehttp.LeveledLogger
}

// NewClient returns a retrying client. With RetryMax 0 every request is
// attempted once, and the last response is handed back as-is instead of
// being turned into an error.
func NewClient(opts ClientOptions) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.Logger = opts.Logger
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	return c
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = NewClient(ClientOptions{})
	}
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-transform")
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	wRes := &WHTTPRes{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if wRes.IsHTML() {
		sniffHTML(wRes)
	}
	return wRes, nil
}

// sniffHTML pulls the page title and notes whether the page asks for a
// password, which is how an expired session shows up.
func sniffHTML(res *WHTTPRes) {
	root, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return
	}
	doc := goquery.NewDocumentFromNode(root)
	title := doc.Find("title").First().Text()
	res.HTTPTitle = strings.ToValidUTF8(strings.TrimSpace(strings.NewReplacer("\n", "", "\r", "").Replace(title)), "")
	res.HasPasswordField = doc.Find(`input[type="password"]`).Length() > 0
}
