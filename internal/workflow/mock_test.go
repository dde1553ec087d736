package workflow

import (
	"context"

	"github.com/Zereker/oncall/pkg/paging"
	"github.com/Zereker/oncall/pkg/ticket"
)

// MockSearcher 用于测试的知识检索 mock
// 实现 knowledge.Searcher 接口
type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string, maxResults int) (string, error)

	SearchCalls []struct {
		Query      string
		MaxResults int
	}
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		SearchFunc: func(ctx context.Context, query string, maxResults int) (string, error) {
			return "mock kb results", nil
		},
	}
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) (string, error) {
	m.SearchCalls = append(m.SearchCalls, struct {
		Query      string
		MaxResults int
	}{query, maxResults})
	return m.SearchFunc(ctx, query, maxResults)
}

// MockNotifier 用于测试的升级通知 mock
// 实现 paging.Notifier 接口
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, event paging.Event) error

	NotifyCalls []paging.Event
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		NotifyFunc: func(ctx context.Context, event paging.Event) error {
			return nil
		},
	}
}

func (m *MockNotifier) Notify(ctx context.Context, event paging.Event) error {
	m.NotifyCalls = append(m.NotifyCalls, event)
	return m.NotifyFunc(ctx, event)
}

// MockTicketSystem 用于测试的工单系统 mock
// 实现 ticket.System 接口
type MockTicketSystem struct {
	CreateFunc func(ctx context.Context, req ticket.Request) (ticket.Ticket, error)

	CreateCalls []ticket.Request
}

func NewMockTicketSystem() *MockTicketSystem {
	return &MockTicketSystem{
		CreateFunc: func(ctx context.Context, req ticket.Request) (ticket.Ticket, error) {
			return ticket.Ticket{Ref: "TKT-mock", System: req.System}, nil
		},
	}
}

func (m *MockTicketSystem) Create(ctx context.Context, req ticket.Request) (ticket.Ticket, error) {
	m.CreateCalls = append(m.CreateCalls, req)
	return m.CreateFunc(ctx, req)
}
