package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/tools/adapters/exa"
)

const maxLabelLen = 24

// Builder assembles the tool registry for a turn from an agent profile.
type Builder struct {
	Exa                 *exa.Client
	Remote              RemoteClient
	Logger              *slog.Logger
	MaxKnowledgeResults int
}

// Build registers the knowledge tool when the agent has a knowledge source
// and the search backend is configured, then discovers tools from each remote
// server. A server that fails discovery is logged and skipped; the rest of
// the catalog still builds.
func (b *Builder) Build(ctx context.Context, agent types.AgentProfile) *Registry {
	registry := NewRegistry()

	if agent.KnowledgeSource != "" && b.Exa.Configured() {
		if ks := NewKnowledgeSearch(b.Exa, agent.KnowledgeSource, b.MaxKnowledgeResults); ks != nil {
			registry.Register(ks)
		} else {
			b.logger().Warn("knowledge source has no usable host", "source", agent.KnowledgeSource)
		}
	}

	for _, server := range agent.RemoteTools {
		if b.Remote == nil {
			b.logger().Warn("remote tool client is not configured", "server", server.Label)
			break
		}
		discovered, err := b.Remote.Discover(ctx, server)
		if err != nil {
			b.logger().Warn("remote tool discovery failed", "server", server.Label, "url", server.URL, "error", err)
			continue
		}

		prefix := SanitizeLabel(server.Label)
		allowed := allowSet(server.AllowedTools)
		for _, tool := range discovered {
			if allowed != nil {
				if _, ok := allowed[tool.Name]; !ok {
					continue
				}
			}
			registry.Register(&remoteExecutor{
				client: b.Remote,
				server: server,
				tool:   tool,
				name:   prefix + "_" + tool.Name,
			})
		}
	}

	return registry
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func allowSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// SanitizeLabel turns a server label into a stable tool-name prefix:
// lowercased, runs of non-alphanumerics collapsed to a single underscore,
// capped at 24 bytes. An unusable label falls back to "remote".
func SanitizeLabel(label string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = sb.Len() > 0
			continue
		}
		if pendingSep {
			sb.WriteByte('_')
			pendingSep = false
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if len(out) > maxLabelLen {
		out = strings.TrimRight(out[:maxLabelLen], "_")
	}
	if out == "" {
		return "remote"
	}
	return out
}

// remoteExecutor proxies one discovered tool back to its server under the
// prefixed name.
type remoteExecutor struct {
	client RemoteClient
	server types.RemoteToolServer
	tool   RemoteTool
	name   string
}

func (e *remoteExecutor) Definition() types.ToolDefinition {
	params := e.tool.InputSchema
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	return types.ToolDefinition{
		Name:        e.name,
		Description: e.tool.Description,
		Parameters:  params,
	}
}

func (e *remoteExecutor) Execute(ctx context.Context, input map[string]any) (*types.ToolResult, error) {
	output, err := e.client.Invoke(ctx, e.server, e.tool.Name, input)
	if err != nil {
		return nil, err
	}
	return &types.ToolResult{Output: output, Source: e.server.Label}, nil
}
