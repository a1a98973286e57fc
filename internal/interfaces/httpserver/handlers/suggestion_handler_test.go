package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/internal/domain/decision"
	"replygate/internal/domain/dispatch"
	"replygate/internal/domain/intent"
	"replygate/internal/domain/suggestion"
	"replygate/internal/interfaces/httpserver/handlers"
)

// MockSuggestionService implements suggestion.Service with overridable funcs.
type MockSuggestionService struct {
	IngestFunc             func(ctx context.Context, params suggestion.IngestParams) (*suggestion.Suggestion, *suggestion.DeliveryOutcome, error)
	GetFunc                func(ctx context.Context, id string) (*suggestion.Suggestion, error)
	ListByConversationFunc func(ctx context.Context, conversationID string) ([]*suggestion.Suggestion, error)
	ListActionsFunc        func(ctx context.Context, suggestionID string) ([]*suggestion.ActionRecord, error)
	ApproveFunc            func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error)
	EditFunc               func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error)
	RejectFunc             func(ctx context.Context, id string, params suggestion.ResolveParams) error
	EscalateFunc           func(ctx context.Context, id string, params suggestion.ResolveParams) error
}

func (m *MockSuggestionService) Ingest(ctx context.Context, params suggestion.IngestParams) (*suggestion.Suggestion, *suggestion.DeliveryOutcome, error) {
	return m.IngestFunc(ctx, params)
}

func (m *MockSuggestionService) Get(ctx context.Context, id string) (*suggestion.Suggestion, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockSuggestionService) ListByConversation(ctx context.Context, conversationID string) ([]*suggestion.Suggestion, error) {
	return m.ListByConversationFunc(ctx, conversationID)
}

func (m *MockSuggestionService) ListActions(ctx context.Context, suggestionID string) ([]*suggestion.ActionRecord, error) {
	return m.ListActionsFunc(ctx, suggestionID)
}

func (m *MockSuggestionService) Approve(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
	return m.ApproveFunc(ctx, id, params)
}

func (m *MockSuggestionService) Edit(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
	return m.EditFunc(ctx, id, params)
}

func (m *MockSuggestionService) Reject(ctx context.Context, id string, params suggestion.ResolveParams) error {
	return m.RejectFunc(ctx, id, params)
}

func (m *MockSuggestionService) Escalate(ctx context.Context, id string, params suggestion.ResolveParams) error {
	return m.EscalateFunc(ctx, id, params)
}

func setupSuggestionRouter(service suggestion.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewSuggestionHandler(service, intent.Default(), zerolog.Nop())

	router := gin.New()
	v1 := router.Group("/v1")
	v1.POST("/suggestions", handler.Ingest)
	v1.GET("/suggestions/:suggestion_id", handler.Get)
	v1.GET("/suggestions/:suggestion_id/actions", handler.ListActions)
	v1.POST("/suggestions/:suggestion_id/approve", handler.Approve)
	v1.POST("/suggestions/:suggestion_id/edit", handler.Edit)
	v1.POST("/suggestions/:suggestion_id/reject", handler.Reject)
	v1.POST("/suggestions/:suggestion_id/escalate", handler.Escalate)
	v1.GET("/conversations/:conversation_id/suggestions", handler.ListByConversation)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validIngestBody() map[string]any {
	return map[string]any{
		"tenant_id":         "tenant-1",
		"conversation_id":   "conv-1",
		"source_message_id": "src-1",
		"channel":           "telegram",
		"recipient_id":      "user-9",
		"text":              "Your order ships tomorrow.",
		"intent":            "order_status",
		"signals": map[string]any{
			"similarity":   0.9,
			"intent_score": 0.85,
			"self_check":   0.8,
		},
	}
}

func sampleSuggestion(status suggestion.Status) *suggestion.Suggestion {
	return &suggestion.Suggestion{
		ID:             "sug-1",
		TenantID:       "tenant-1",
		ConversationID: "conv-1",
		Channel:        "telegram",
		Text:           "Your order ships tomorrow.",
		Intent:         "order_status",
		Disposition:    decision.DispositionNeedApproval,
		Status:         status,
	}
}

func TestIngest(t *testing.T) {
	t.Run("classified suggestion returns 201", func(t *testing.T) {
		var captured suggestion.IngestParams
		service := &MockSuggestionService{
			IngestFunc: func(ctx context.Context, params suggestion.IngestParams) (*suggestion.Suggestion, *suggestion.DeliveryOutcome, error) {
				captured = params
				return sampleSuggestion(suggestion.StatusPending), nil, nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions", validIngestBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "tenant-1", captured.TenantID)
		require.NotNil(t, captured.Signals.Similarity)
		assert.Equal(t, 0.9, *captured.Signals.Similarity)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "suggestion")
	})

	t.Run("autosend outcome includes the delivery", func(t *testing.T) {
		service := &MockSuggestionService{
			IngestFunc: func(ctx context.Context, params suggestion.IngestParams) (*suggestion.Suggestion, *suggestion.DeliveryOutcome, error) {
				sugg := sampleSuggestion(suggestion.StatusApproved)
				sugg.Disposition = decision.DispositionAutoSend
				sugg.AutosendEligible = true
				return sugg, &suggestion.DeliveryOutcome{
					Mode:      suggestion.DeliveryScheduled,
					MessageID: "msg-1",
					Job:       &dispatch.Job{ID: "job-1", MessageID: "msg-1", DelayMs: 4200, Status: dispatch.StatusScheduled},
				}, nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions", validIngestBody())

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"mode":"scheduled"`)
		assert.Contains(t, rec.Body.String(), `"job-1"`)
	})

	t.Run("missing required fields return 400", func(t *testing.T) {
		service := &MockSuggestionService{}
		router := setupSuggestionRouter(service)

		body := validIngestBody()
		delete(body, "text")
		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("intent outside the vocabulary returns 400", func(t *testing.T) {
		service := &MockSuggestionService{}
		router := setupSuggestionRouter(service)

		body := validIngestBody()
		body["intent"] = "astrology"
		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown intent label")
	})
}

func TestGetSuggestion(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		service := &MockSuggestionService{
			GetFunc: func(ctx context.Context, id string) (*suggestion.Suggestion, error) {
				assert.Equal(t, "sug-1", id)
				return sampleSuggestion(suggestion.StatusPending), nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodGet, "/v1/suggestions/sug-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sug-1"`)
	})

	t.Run("not found", func(t *testing.T) {
		service := &MockSuggestionService{
			GetFunc: func(ctx context.Context, id string) (*suggestion.Suggestion, error) {
				return nil, suggestion.ErrNotFound
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodGet, "/v1/suggestions/missing", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListByConversation(t *testing.T) {
	service := &MockSuggestionService{
		ListByConversationFunc: func(ctx context.Context, conversationID string) ([]*suggestion.Suggestion, error) {
			assert.Equal(t, "conv-1", conversationID)
			return []*suggestion.Suggestion{sampleSuggestion(suggestion.StatusPending)}, nil
		},
	}
	router := setupSuggestionRouter(service)

	rec := doJSON(t, router, http.MethodGet, "/v1/conversations/conv-1/suggestions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data"`)
}

func TestApprove(t *testing.T) {
	t.Run("approves and returns the delivery", func(t *testing.T) {
		service := &MockSuggestionService{
			ApproveFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
				assert.Equal(t, "sug-1", id)
				assert.Equal(t, "op-1", params.ActorID)
				return &suggestion.DeliveryOutcome{Mode: suggestion.DeliveryScheduled, MessageID: "msg-1"}, nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/approve", map[string]any{"actor_id": "op-1"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"delivery"`)
	})

	t.Run("already resolved returns 409", func(t *testing.T) {
		service := &MockSuggestionService{
			ApproveFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
				return nil, suggestion.ErrAlreadyResolved
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/approve", map[string]any{"actor_id": "op-1"})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown suggestion returns 404", func(t *testing.T) {
		service := &MockSuggestionService{
			ApproveFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
				return nil, suggestion.ErrNotFound
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/missing/approve", map[string]any{"actor_id": "op-1"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEdit(t *testing.T) {
	t.Run("edited text is forwarded", func(t *testing.T) {
		service := &MockSuggestionService{
			EditFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) (*suggestion.DeliveryOutcome, error) {
				assert.Equal(t, "Shorter answer.", params.EditedText)
				return &suggestion.DeliveryOutcome{Mode: suggestion.DeliveryImmediate, MessageID: "msg-1"}, nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/edit", map[string]any{
			"actor_id":    "op-1",
			"edited_text": "Shorter answer.",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("blank edited text returns 400", func(t *testing.T) {
		service := &MockSuggestionService{}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/edit", map[string]any{
			"actor_id":    "op-1",
			"edited_text": "   ",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRejectAndEscalate(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		service := &MockSuggestionService{
			RejectFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) error {
				assert.Equal(t, "wrong tone", params.Reason)
				return nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/reject", map[string]any{
			"actor_id": "op-1",
			"reason":   "wrong tone",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rejected"`)
	})

	t.Run("escalate", func(t *testing.T) {
		service := &MockSuggestionService{
			EscalateFunc: func(ctx context.Context, id string, params suggestion.ResolveParams) error {
				return nil
			},
		}
		router := setupSuggestionRouter(service)

		rec := doJSON(t, router, http.MethodPost, "/v1/suggestions/sug-1/escalate", map[string]any{"actor_id": "op-1"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"escalated"`)
	})
}

func TestListActions(t *testing.T) {
	service := &MockSuggestionService{
		ListActionsFunc: func(ctx context.Context, suggestionID string) ([]*suggestion.ActionRecord, error) {
			return []*suggestion.ActionRecord{
				{ID: "act-1", SuggestionID: suggestionID, Action: suggestion.ActionApprove, ActorID: "op-1"},
			}, nil
		},
	}
	router := setupSuggestionRouter(service)

	rec := doJSON(t, router, http.MethodGet, "/v1/suggestions/sug-1/actions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"act-1"`)
}
