package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/tools/adapters/exa"
)

type fakeRemote struct {
	tools   map[string][]RemoteTool // keyed by server label
	failing map[string]bool
	invoked []string
}

func (f *fakeRemote) Discover(_ context.Context, server types.RemoteToolServer) ([]RemoteTool, error) {
	if f.failing[server.Label] {
		return nil, errors.New("connection refused")
	}
	return f.tools[server.Label], nil
}

func (f *fakeRemote) Invoke(_ context.Context, server types.RemoteToolServer, tool string, input map[string]any) (any, error) {
	f.invoked = append(f.invoked, server.Label+"/"+tool)
	return map[string]any{"echo": input["v"]}, nil
}

func TestSanitizeLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Weather API", "weather_api"},
		{"  my--server  ", "my_server"},
		{"UPPER", "upper"},
		{"v2.1/tools", "v2_1_tools"},
		{"!!!", "remote"},
		{"", "remote"},
		{"a-very-long-server-label-name", "a_very_long_server_label"},
	}
	for _, tc := range cases {
		if got := SanitizeLabel(tc.in); got != tc.want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuild_PrefixesRemoteTools(t *testing.T) {
	remote := &fakeRemote{tools: map[string][]RemoteTool{
		"Weather API": {
			{Name: "forecast", Description: "7 day forecast", InputSchema: map[string]any{"type": "object"}},
			{Name: "current", Description: "current conditions"},
		},
	}}
	b := &Builder{Remote: remote}

	registry := b.Build(context.Background(), types.AgentProfile{
		RemoteTools: []types.RemoteToolServer{{Label: "Weather API", URL: "https://weather.example.com/mcp"}},
	})

	var names []string
	for _, def := range registry.Definitions() {
		names = append(names, def.Name)
	}
	want := []string{"weather_api_forecast", "weather_api_current"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("catalog = %v, want %v", names, want)
	}

	result, err := registry.Execute(context.Background(), "weather_api_forecast", map[string]any{"v": "x"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Source != "Weather API" {
		t.Errorf("source = %q, want the server label", result.Source)
	}
	if len(remote.invoked) != 1 || remote.invoked[0] != "Weather API/forecast" {
		t.Errorf("invoked = %v; remote call must use the unprefixed tool name", remote.invoked)
	}
}

func TestBuild_AllowListFiltersTools(t *testing.T) {
	remote := &fakeRemote{tools: map[string][]RemoteTool{
		"srv": {{Name: "keep"}, {Name: "drop"}},
	}}
	b := &Builder{Remote: remote}

	registry := b.Build(context.Background(), types.AgentProfile{
		RemoteTools: []types.RemoteToolServer{{Label: "srv", URL: "https://srv.example.com", AllowedTools: []string{"keep"}}},
	})

	if !registry.Has("srv_keep") || registry.Has("srv_drop") {
		t.Errorf("catalog = %v, want only srv_keep", registry.Definitions())
	}
}

func TestBuild_DiscoveryFailureSkipsServer(t *testing.T) {
	remote := &fakeRemote{
		tools:   map[string][]RemoteTool{"good": {{Name: "ping"}}},
		failing: map[string]bool{"bad": true},
	}
	b := &Builder{Remote: remote}

	registry := b.Build(context.Background(), types.AgentProfile{
		RemoteTools: []types.RemoteToolServer{
			{Label: "bad", URL: "https://bad.example.com"},
			{Label: "good", URL: "https://good.example.com"},
		},
	})

	if registry.Len() != 1 || !registry.Has("good_ping") {
		t.Errorf("catalog = %v, want only good_ping", registry.Definitions())
	}
}

func TestBuild_KnowledgeToolNeedsConfiguredSearch(t *testing.T) {
	b := &Builder{Exa: exa.NewClient("", "", nil)}
	registry := b.Build(context.Background(), types.AgentProfile{KnowledgeSource: "https://docs.example.com"})
	if registry.Len() != 0 {
		t.Errorf("catalog = %v, want empty without a search key", registry.Definitions())
	}

	b = &Builder{Exa: exa.NewClient("key", "", nil)}
	registry = b.Build(context.Background(), types.AgentProfile{KnowledgeSource: "https://docs.example.com"})
	if !registry.Has(ToolKnowledgeSearch) {
		t.Errorf("catalog = %v, want %s", registry.Definitions(), ToolKnowledgeSearch)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Execute(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestKnowledgeSearch_RestrictsToSourceHost(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "d1", "title": "Shipping", "url": "https://docs.example.com/shipping", "text": "ships in 2 days"},
			},
		})
	}))
	defer srv.Close()

	ks := NewKnowledgeSearch(exa.NewClient("key", srv.URL, nil), "https://docs.example.com/help", 3)
	if ks == nil {
		t.Fatal("executor should build for a valid source url")
	}

	result, err := ks.Execute(context.Background(), map[string]any{"query": "shipping times"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Source != "https://docs.example.com/help" {
		t.Errorf("source = %q, want the configured source url", result.Source)
	}

	domains, _ := gotBody["includeDomains"].([]any)
	if len(domains) != 1 || domains[0] != "docs.example.com" {
		t.Errorf("includeDomains = %v, want the source host", gotBody["includeDomains"])
	}

	output, ok := result.Output.(map[string]any)
	if !ok {
		t.Fatalf("output = %T", result.Output)
	}
	results, ok := output["results"].([]map[string]any)
	if !ok || len(results) != 1 || results[0]["snippet"] != "ships in 2 days" {
		t.Errorf("results = %v", output["results"])
	}
}

func TestKnowledgeSearch_RejectsBlankQuery(t *testing.T) {
	ks := NewKnowledgeSearch(exa.NewClient("key", "", nil), "docs.example.com", 0)
	if _, err := ks.Execute(context.Background(), map[string]any{"query": "  "}); err == nil {
		t.Fatal("expected error for blank query")
	}
	if _, err := ks.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing query")
	}
}

func TestNewKnowledgeSearch_UnusableSource(t *testing.T) {
	if ks := NewKnowledgeSearch(exa.NewClient("key", "", nil), "   ", 0); ks != nil {
		t.Fatal("blank source should not build an executor")
	}
}
