// Package mock provides an in-memory test double for the portal client.
//
// [Client] implements every method of [*portal.Client] that the rest of the
// module consumes through interfaces. Set the exported result fields before
// use and inspect the recorded calls afterwards. For per-call behaviour (for
// example, fail twice and then succeed) set the matching Func field, which
// takes precedence over the static results.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/tutor/pkg/portal"
)

// Client is a mock of the portal API. It is safe for concurrent use.
type Client struct {
	mu sync.Mutex

	// SendChatFunc, if set, handles SendChat.
	SendChatFunc func(ctx context.Context, req portal.ChatRequest) (string, error)
	// SendChatResult and SendChatErr are returned by SendChat otherwise.
	SendChatResult string
	SendChatErr    error

	// HistoryFunc, if set, handles History.
	HistoryFunc func(ctx context.Context, subjectID, chapterID int64) ([]portal.HistoryEntry, error)
	// HistoryResult and HistoryErr are returned by History otherwise.
	HistoryResult []portal.HistoryEntry
	HistoryErr    error

	// TranscribeResult and TranscribeErr are returned by Transcribe.
	TranscribeResult string
	TranscribeErr    error

	// GenerateTestResult and GenerateTestErr are returned by GenerateTest.
	GenerateTestResult []portal.Question
	GenerateTestErr    error

	// LoginResult/LoginErr, RegisterResult/RegisterErr and UserInfoResult/
	// UserInfoErr are returned by the matching auth calls.
	LoginResult    portal.User
	LoginErr       error
	RegisterResult portal.User
	RegisterErr    error
	UserInfoResult portal.User
	UserInfoErr    error

	// LogoutErr, SelectStandardErr and UpdateSettingsErr are returned by the
	// matching calls.
	LogoutErr         error
	SelectStandardErr error
	UpdateSettingsErr error

	// SubjectsResult/SubjectsErr and ChaptersResult/ChaptersErr are returned
	// by the catalog calls. ChaptersResult is keyed by subject ID.
	SubjectsResult []portal.Subject
	SubjectsErr    error
	ChaptersResult map[int64][]portal.Chapter
	ChaptersErr    error

	// Recorded calls.
	SendChatCalls       []portal.ChatRequest
	HistoryCalls        [][2]int64
	TranscribeCalls     [][]byte
	GenerateTestCalls   []GenerateTestCall
	LoginCalls          []portal.Credentials
	RegisterCalls       []portal.Registration
	SelectStandardCalls []string
	UpdateSettingsCalls []portal.Settings
	CallCountLogout     int
	CallCountUserInfo   int
	CallCountSubjects   int
	ChaptersCalls       []int64
}

// GenerateTestCall records one GenerateTest invocation.
type GenerateTestCall struct {
	ChapterID int64
	Topic     string
}

// SendChat records the request and returns the configured reply.
func (c *Client) SendChat(ctx context.Context, req portal.ChatRequest) (string, error) {
	c.mu.Lock()
	c.SendChatCalls = append(c.SendChatCalls, req)
	fn, res, err := c.SendChatFunc, c.SendChatResult, c.SendChatErr
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return res, err
}

// SendChatCount returns how many times SendChat was called.
func (c *Client) SendChatCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.SendChatCalls)
}

// History records the call and returns the configured history.
func (c *Client) History(ctx context.Context, subjectID, chapterID int64) ([]portal.HistoryEntry, error) {
	c.mu.Lock()
	c.HistoryCalls = append(c.HistoryCalls, [2]int64{subjectID, chapterID})
	fn, res, err := c.HistoryFunc, c.HistoryResult, c.HistoryErr
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, subjectID, chapterID)
	}
	return res, err
}

// Transcribe records the payload and returns the configured text.
func (c *Client) Transcribe(_ context.Context, wav []byte, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TranscribeCalls = append(c.TranscribeCalls, wav)
	return c.TranscribeResult, c.TranscribeErr
}

// GenerateTest records the call and returns the configured questions.
func (c *Client) GenerateTest(_ context.Context, chapterID int64, topic string) ([]portal.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GenerateTestCalls = append(c.GenerateTestCalls, GenerateTestCall{ChapterID: chapterID, Topic: topic})
	return c.GenerateTestResult, c.GenerateTestErr
}

// Login records the credentials and returns LoginResult, LoginErr.
func (c *Client) Login(_ context.Context, cred portal.Credentials) (portal.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LoginCalls = append(c.LoginCalls, cred)
	return c.LoginResult, c.LoginErr
}

// Register records the registration and returns RegisterResult, RegisterErr.
func (c *Client) Register(_ context.Context, reg portal.Registration) (portal.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RegisterCalls = append(c.RegisterCalls, reg)
	return c.RegisterResult, c.RegisterErr
}

// Logout counts the call and returns LogoutErr.
func (c *Client) Logout(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountLogout++
	return c.LogoutErr
}

// UserInfo counts the call and returns UserInfoResult, UserInfoErr.
func (c *Client) UserInfo(context.Context) (portal.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountUserInfo++
	return c.UserInfoResult, c.UserInfoErr
}

// SelectStandard records the standard and returns SelectStandardErr.
func (c *Client) SelectStandard(_ context.Context, standard string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SelectStandardCalls = append(c.SelectStandardCalls, standard)
	return c.SelectStandardErr
}

// UpdateSettings records the settings and returns UpdateSettingsErr.
func (c *Client) UpdateSettings(_ context.Context, s portal.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UpdateSettingsCalls = append(c.UpdateSettingsCalls, s)
	return c.UpdateSettingsErr
}

// Subjects counts the call and returns SubjectsResult, SubjectsErr.
func (c *Client) Subjects(context.Context) ([]portal.Subject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountSubjects++
	return c.SubjectsResult, c.SubjectsErr
}

// Chapters records the subject and returns its configured chapters.
func (c *Client) Chapters(_ context.Context, subjectID int64) ([]portal.Chapter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ChaptersCalls = append(c.ChaptersCalls, subjectID)
	if c.ChaptersErr != nil {
		return nil, c.ChaptersErr
	}
	return c.ChaptersResult[subjectID], nil
}
