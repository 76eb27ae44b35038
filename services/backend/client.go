package backendsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/marks"
	"github.com/trezcool/marksboard/core/portal"
	"github.com/trezcool/marksboard/core/student"
)

const (
	registerPath  = "/student/register"
	loginPath     = "/student/login"
	addMarksPath  = "/marks/add?studentId={studentId}"
	dashboardPath = "/marks/dashboard"
	editMarksPath = "/marks/student/{studentId}/edit"

	studentIDParam = "{studentId}"
)

// Client talks to the marks service over its REST API.
type Client struct {
	rest        *rest.Client
	baseURL     string
	readPaths   []string
	updatePaths []string
	logger      core.Logger
}

var _ portal.Client = (*Client)(nil)

func New(conf core.BackendConfig, logger core.Logger) *Client {
	readPaths, updatePaths := conf.ReadPaths, conf.UpdatePaths
	if len(readPaths) == 0 {
		readPaths = core.DefaultReadPaths
	}
	if len(updatePaths) == 0 {
		updatePaths = core.DefaultUpdatePaths
	}
	return &Client{
		rest:        &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		baseURL:     strings.TrimRight(conf.BaseURL, "/"),
		readPaths:   readPaths,
		updatePaths: updatePaths,
		logger:      logger,
	}
}

func (c *Client) RegisterStudent(ctx context.Context, reg student.Registration) (student.Student, error) {
	var stu student.Student
	err := c.do(ctx, "registerStudent", rest.Post, registerPath, "", reg, &stu, "Registration failed")
	return stu, err
}

func (c *Client) LoginStudent(ctx context.Context, creds student.Credentials) (student.Student, error) {
	var stu student.Student
	err := c.do(ctx, "loginStudent", rest.Post, loginPath, "", creds, &stu, "Login failed")
	return stu, err
}

// AddOrUpdateMarks creates the marks of the student, or updates them when the marks service
// reports that they already exist.
func (c *Client) AddOrUpdateMarks(ctx context.Context, studentID string, scores marks.Scores) (marks.Record, error) {
	const fallback = "Failed to add/update marks"

	var rec marks.Record
	err := c.do(ctx, "addMarks", rest.Post, addMarksPath, studentID, scores, &rec, fallback)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.alreadyExists() {
		return rec, err
	}

	c.debug("marks already exist, updating instead", map[string]interface{}{"studentId": studentID})
	return c.probe(ctx, "updateMarks", rest.Put, c.updatePaths, studentID, scores, fallback)
}

// GetMarks returns the marks of the student, trying every configured read path in turn.
// When none answers, an empty record is returned.
func (c *Client) GetMarks(ctx context.Context, studentID string) (marks.Record, error) {
	rec, err := c.probe(ctx, "getMarks", rest.Get, c.readPaths, studentID, nil, "Failed to get marks")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return marks.Record{}, ctxErr
		}
		c.debug("no marks found", err, map[string]interface{}{"studentId": studentID})
		return marks.Record{StudentID: studentID}, nil
	}
	if rec.StudentID == "" {
		rec.StudentID = studentID
	}
	return rec, nil
}

func (c *Client) GetDashboardData(ctx context.Context) ([]marks.Row, error) {
	var rows []marks.Row
	err := c.do(ctx, "getDashboardData", rest.Get, dashboardPath, "", nil, &rows, "Failed to get dashboard data")
	return rows, err
}

func (c *Client) UpdateStudentMarks(ctx context.Context, studentID string, scores marks.Scores) (marks.Record, error) {
	var rec marks.Record
	err := c.do(ctx, "updateStudentMarks", rest.Put, editMarksPath, studentID, scores, &rec, "Failed to update marks")
	return rec, err
}

// probe sends the request to each path in turn, moving on to the next one when the marks
// service answers with an error (or, for mutations, only when the path does not exist).
func (c *Client) probe(ctx context.Context, op string, method rest.Method, paths []string, studentID string, body interface{}, fallback string) (marks.Record, error) {
	var lastErr error
	for _, path := range paths {
		var rec marks.Record
		err := c.do(ctx, op, method, path, studentID, body, &rec, fallback)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		var apiErr *APIError
		if method != rest.Get && (!errors.As(err, &apiErr) || !pathNotServed(apiErr.Status)) {
			break
		}
	}
	return marks.Record{}, lastErr
}

func pathNotServed(status int) bool {
	return status == http.StatusNotFound || status == http.StatusMethodNotAllowed
}

// do sends one request and decodes the JSON answer into `out`.
// A successful answer whose body is not JSON leaves `out` untouched.
func (c *Client) do(ctx context.Context, op string, method rest.Method, path, studentID string, body, out interface{}, fallback string) error {
	req, err := c.request(method, path, studentID, body)
	if err != nil {
		return errors.Wrap(err, op)
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.debug("marks service unreachable", map[string]interface{}{"op": op, "url": req.BaseURL}, err)
		return &NetworkError{Op: op, Err: err}
	}
	c.debug("marks service call", map[string]interface{}{
		"op":     op,
		"method": string(method),
		"url":    req.BaseURL,
		"status": res.StatusCode,
	})

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(op, res, fallback)
	}

	data := []byte(strings.TrimSpace(res.Body))
	if out == nil || !json.Valid(data) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: decoding response", op)
	}
	return nil
}

// request builds the rest.Request of `path`, substituting the student ID.
// The query string of `path` is moved to the query parameters.
func (c *Client) request(method rest.Method, path, studentID string, body interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:  method,
		Headers: map[string]string{"Accept": "application/json"},
	}

	rawQuery := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, rawQuery = path[:i], path[i+1:]
	}
	req.BaseURL = c.baseURL + strings.ReplaceAll(path, studentIDParam, url.PathEscape(studentID))

	if rawQuery != "" {
		query, err := url.ParseQuery(rawQuery)
		if err != nil {
			return req, errors.Wrapf(err, "parsing query of %q", path)
		}
		req.QueryParams = make(map[string]string, len(query))
		for key := range query {
			req.QueryParams[key] = strings.ReplaceAll(query.Get(key), studentIDParam, studentID)
		}
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return req, errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
