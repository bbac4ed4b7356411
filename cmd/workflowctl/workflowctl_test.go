package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	jwttoken "merenda/internal/jwt_token"
	"merenda/internal/platform/config"
	"merenda/internal/workflow/catalog"
	"merenda/pkg/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestList(t *testing.T) {
	t.Run("text table names every workflow", func(t *testing.T) {
		out, err := execute(t, "list")
		require.NoError(t, err)
		for _, def := range catalog.Definitions() {
			assert.Contains(t, out, def.Name())
		}
	})

	t.Run("json carries the kinds bound to each workflow", func(t *testing.T) {
		out, err := execute(t, "list", "--format", "json")
		require.NoError(t, err)
		var views []definitionView
		require.NoError(t, json.Unmarshal([]byte(out), &views))
		require.Len(t, views, len(catalog.Definitions()))
		for _, v := range views {
			if v.Name == catalog.SchoolRequest {
				assert.Contains(t, v.Kinds, string(catalog.KindMenuChange))
			}
		}
	})
}

func TestDescribe(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "describe", catalog.DeliveryGuide, "--format", "yaml")
		require.NoError(t, err)
		var v definitionView
		require.NoError(t, yaml.Unmarshal([]byte(out), &v))
		assert.Equal(t, catalog.DeliveryGuide, v.Name)
		var silent []string
		for _, tr := range v.Transitions {
			if tr.Silent {
				silent = append(silent, tr.Event)
			}
		}
		assert.Contains(t, silent, string(catalog.GuideSystemReleases))
	})

	t.Run("unknown workflow", func(t *testing.T) {
		_, err := execute(t, "describe", "lunch_party")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown workflow")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := execute(t, "describe", catalog.SchoolRequest, "--format", "xml")
		assert.Error(t, err)
	})
}

func TestDot(t *testing.T) {
	out, err := execute(t, "dot", catalog.DeliveryRequest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `digraph "delivery_request" {`))
	assert.Contains(t, out, `"AWAITING_DISPATCH" -> "DISPATCHED"`)

	out, err = execute(t, "dot", catalog.DeliveryGuide)
	require.NoError(t, err)
	assert.Contains(t, out, `label="guide.system_releases", style=dashed`)
}

func TestValidate(t *testing.T) {
	t.Run("built-in catalog", func(t *testing.T) {
		out, err := execute(t, "validate")
		require.NoError(t, err)
		assert.Equal(t, len(catalog.Definitions()), strings.Count(out, "ok  "))
	})

	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, `
name: tasting
namespace: tasting
initial: DRAFT
states:
  - {name: DRAFT, label: Draft}
  - {name: TASTED, label: Tasted, kind: approved}
transitions:
  - {event: tasting.taste, sources: [DRAFT], target: TASTED}
`)
		out, err := execute(t, "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "ok  "+path)
	})

	t.Run("reports declaration errors", func(t *testing.T) {
		path := writeFile(t, `
name: tasting
namespace: tasting
initial: DRAFT
states:
  - {name: DRAFT, label: Draft}
transitions:
  - {event: other.taste, sources: [DRAFT], target: TASTED}
`)
		_, err := execute(t, "validate", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside namespace")
		assert.Contains(t, err.Error(), "undeclared state TASTED")
	})

	t.Run("reports unreachable states", func(t *testing.T) {
		path := writeFile(t, `
name: tasting
namespace: tasting
initial: DRAFT
states:
  - {name: DRAFT, label: Draft}
  - {name: TASTED, label: Tasted}
  - {name: ORPHAN, label: Orphan}
transitions:
  - {event: tasting.taste, sources: [DRAFT], target: TASTED}
`)
		_, err := execute(t, "validate", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable states [ORPHAN]")
	})
}

func TestToken(t *testing.T) {
	t.Setenv("MERENDA_JWT_SIGNING_KEY", "cli-test-key")
	institution := "7f0c3f6e-9a8b-4f5e-8a51-0c7c1d2e3f40"

	out, err := execute(t, "token", "--role", "school_director", "--name", "Ana", "--institution-id", institution, "--institution-kind", "school")
	require.NoError(t, err)

	svc := jwttoken.NewJWTService("cli-test-key", config.Default().Server.JWTIssuer, tokenAudience)
	actor, err := svc.ValidateActor(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSchoolDirector, actor.Role)
	assert.Equal(t, institution, actor.InstitutionID.String())
	assert.Equal(t, "Ana", actor.Name)

	out, err = execute(t, "token", "--role", "district_co_manager", "--email", "maria.lima@dre.example")
	require.NoError(t, err)
	actor, err = svc.ValidateActor(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "Maria Lima", actor.Name)

	_, err = execute(t, "token", "--role", "system")
	assert.Error(t, err)
}
