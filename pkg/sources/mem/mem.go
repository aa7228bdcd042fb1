package mem

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/bcgov/mmti-sync/pkg/codemap"
	"github.com/bcgov/mmti-sync/pkg/records"
	"github.com/bcgov/mmti-sync/pkg/sources"
	"github.com/bcgov/mmti-sync/pkg/whttp"
)

const (
	DefaultBaseURL   = "https://mines.empr.gov.bc.ca/api"
	DefaultUserAgent = "mmti-sync"
)

// Logger is the subset of logrus the client needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Options configures a Client. Only SessionID is required.
type Options struct {
	BaseURL   string
	SessionID string
	UserAgent string
	Codes     *codemap.Mapper
	HTTP      *retryablehttp.Client
	Log       Logger
}

// Client reads projects and collections from the MEM API.
type Client struct {
	baseURL   string
	sessionID string
	userAgent string
	codes     *codemap.Mapper
	http      *retryablehttp.Client
	log       Logger
}

var _ sources.Source = (*Client)(nil)

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		sessionID: opts.SessionID,
		userAgent: opts.UserAgent,
		codes:     opts.Codes,
		http:      opts.HTTP,
		log:       opts.Log,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.codes == nil {
		c.codes = codemap.New(nil)
	}
	if c.http == nil {
		c.http = whttp.NewClient(whttp.ClientOptions{})
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	return c
}

func (c *Client) Name() string { return "mem" }

// DocumentBase is the root that document fetch URLs are built from.
func (c *Client) DocumentBase() string { return c.baseURL }

func (c *Client) FetchProject(ctx context.Context, code string) sources.ProjectFetch {
	c.log.Debugf("getting project %q from MEM", code)

	body, fail := c.get(ctx, code, "/project/bycode/")
	if fail != nil {
		c.log.Warnf("failed to fetch MEM project: %v", fail)
		return sources.ProjectFetch{Outcome: sources.OutcomeFailed, Err: fail}
	}
	if body == nil {
		c.log.Warnf("empty MEM project response for %q", code)
		return sources.ProjectFetch{Outcome: sources.OutcomeEmpty}
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.Null {
		c.log.Warnf("empty MEM project response for %q", code)
		return sources.ProjectFetch{Outcome: sources.OutcomeEmpty}
	}
	if !parsed.IsObject() {
		fail := &sources.Failure{Kind: sources.ErrParse, Code: code, Err: fmt.Errorf("expected an object")}
		c.log.Warnf("failed to fetch MEM project: %v", fail)
		return sources.ProjectFetch{Outcome: sources.OutcomeFailed, Err: fail}
	}

	c.log.Debugf("fetched MEM project for %q", code)
	return sources.ProjectFetch{
		Outcome: sources.OutcomeOK,
		Project: records.ExternalProject{
			Code:        parsed.Get("code").String(),
			Name:        parsed.Get("name").String(),
			MemPermitID: parsed.Get("memPermitID").String(),
		},
	}
}

func (c *Client) FetchCollections(ctx context.Context, code string) sources.CollectionsFetch {
	c.log.Debugf("getting collections for %q from MEM", code)

	body, fail := c.get(ctx, code, "/collections/project/")
	if fail != nil {
		c.log.Warnf("failed to fetch MEM collections: %v", fail)
		return sources.CollectionsFetch{Outcome: sources.OutcomeFailed, Err: fail}
	}
	if body == nil {
		return sources.CollectionsFetch{Outcome: sources.OutcomeEmpty}
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.Null {
		return sources.CollectionsFetch{Outcome: sources.OutcomeEmpty}
	}
	if !parsed.IsArray() {
		fail := &sources.Failure{Kind: sources.ErrParse, Code: code, Err: fmt.Errorf("expected an array")}
		c.log.Warnf("failed to fetch MEM collections: %v", fail)
		return sources.CollectionsFetch{Outcome: sources.OutcomeFailed, Err: fail}
	}

	items := parsed.Array()
	if len(items) == 0 {
		return sources.CollectionsFetch{Outcome: sources.OutcomeEmpty}
	}

	collections := make([]records.ExternalCollection, 0, len(items))
	for _, item := range items {
		collections = append(collections, ParseCollection(item))
	}
	c.log.Debugf("fetched %d collection(s) for %q", len(collections), code)
	return sources.CollectionsFetch{Outcome: sources.OutcomeOK, Collections: collections}
}

// get fetches path+<external code>. A nil body with a nil failure means
// the server answered 2xx with nothing in it.
func (c *Client) get(ctx context.Context, code, path string) ([]byte, *sources.Failure) {
	external := c.codes.ToExternalCode(code)
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: http.MethodGet,
		URL:    c.baseURL + path + url.PathEscape(external),
		Headers: []whttp.WHTTPHeader{
			{Name: "User-Agent", Value: c.userAgent},
			{Name: "Cookie", Value: "sessionId=" + c.sessionID},
		},
	}, c.http)
	if err != nil {
		return nil, &sources.Failure{Kind: sources.ErrTransport, Code: code, Err: err}
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, &sources.Failure{Kind: sources.ErrAuth, Code: code, StatusCode: res.StatusCode}
	case res.StatusCode == http.StatusNotFound:
		return nil, &sources.Failure{Kind: sources.ErrNotFound, Code: code, StatusCode: res.StatusCode}
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, &sources.Failure{Kind: sources.ErrStatus, Code: code, StatusCode: res.StatusCode}
	}

	if res.IsHTML() {
		if res.HasPasswordField {
			return nil, &sources.Failure{Kind: sources.ErrAuth, Code: code, StatusCode: res.StatusCode, Err: fmt.Errorf("served login page %q", res.HTTPTitle)}
		}
		return nil, &sources.Failure{Kind: sources.ErrParse, Code: code, StatusCode: res.StatusCode, Err: fmt.Errorf("served html page %q", res.HTTPTitle)}
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, &sources.Failure{Kind: sources.ErrParse, Code: code, StatusCode: res.StatusCode, Err: fmt.Errorf("invalid json")}
	}
	return body, nil
}

// ParseCollection decodes one collection of the collections endpoint.
// Missing fields decode to zero values.
func ParseCollection(v gjson.Result) records.ExternalCollection {
	c := records.ExternalCollection{
		Type:         v.Get("type").String(),
		ParentType:   v.Get("parentType").String(),
		DisplayName:  v.Get("displayName").String(),
		Date:         v.Get("date").String(),
		Status:       v.Get("status").String(),
		IsForMEM:     v.Get("isForMEM").Bool(),
		IsForENV:     v.Get("isForENV").Bool(),
		MainDocument: parseSlot(v.Get("mainDocument")),
	}
	v.Get("otherDocuments").ForEach(func(_, other gjson.Result) bool {
		c.OtherDocuments = append(c.OtherDocuments, parseSlot(other))
		return true
	})
	return c
}

func parseSlot(v gjson.Result) *records.CollectionDocument {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	doc := v.Get("document")
	if !doc.IsObject() {
		return &records.CollectionDocument{}
	}
	return &records.CollectionDocument{Document: &records.Document{
		ID:          doc.Get("_id").String(),
		DisplayName: doc.Get("displayName").String(),
		Date:        doc.Get("date").String(),
	}}
}
