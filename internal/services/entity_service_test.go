package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agegraph/typegraph/internal/agtype"
	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/repositories"
	"github.com/agegraph/typegraph/internal/services/cypher"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock GraphRepository recording every statement.
// respond returns the rows for a statement; a nil respond returns no rows.
type mockGraphRepository struct {
	mu         sync.Mutex
	statements []string
	txCount    int
	respond    func(stmt string) ([]string, error)
}

func (m *mockGraphRepository) Query(ctx context.Context, stmt string) ([]string, error) {
	m.mu.Lock()
	m.statements = append(m.statements, stmt)
	respond := m.respond
	m.mu.Unlock()

	if respond == nil {
		return nil, nil
	}
	return respond(stmt)
}

func (m *mockGraphRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repositories.CypherRunner) error) error {
	m.mu.Lock()
	m.txCount++
	m.mu.Unlock()
	return fn(ctx, m)
}

func (m *mockGraphRepository) executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statements...)
}

// Stub TypeResolver over a fixed set of definitions
type stubResolver struct {
	defs []*entities.TypeDefinition
	err  error
}

func (r *stubResolver) FindByID(ctx context.Context, graphID, typeID string) (*entities.TypeDefinition, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, def := range r.defs {
		if def.GraphID == graphID && def.ID == typeID {
			return def, nil
		}
	}
	return nil, fmt.Errorf("type %s: %w", typeID, repositories.ErrNotFound)
}

func (r *stubResolver) FindByName(ctx context.Context, graphID, name string) (*entities.TypeDefinition, error) {
	if r.err != nil {
		return nil, r.err
	}
	normalized := entities.NormalizeName(name)
	for _, def := range r.defs {
		if def.GraphID == graphID && def.NormalizedName == normalized {
			return def, nil
		}
	}
	return nil, fmt.Errorf("type %s: %w", name, repositories.ErrNotFound)
}

var (
	testActor = uuid.MustParse("5d0c6b1e-8a55-4e1c-9b1e-2f7f3c1a9d42")
	testNow   = time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)
)

func testTypes() []*entities.TypeDefinition {
	return []*entities.TypeDefinition{
		{
			ID: "vPLANT001", GraphID: "energy", Kind: entities.KindNode,
			Name: "Power Plant", NormalizedName: "POWER_PLANT",
			Attributes: []*entities.AttributeDefinition{
				{Name: "name", NormalizedName: "NAME", DataType: entities.DataTypeString, Required: true},
				{Name: "capacity", NormalizedName: "CAPACITY", DataType: entities.DataTypeNumber, Required: true},
				{Name: "commissioned", NormalizedName: "COMMISSIONED", DataType: entities.DataTypeDate},
			},
		},
		{
			ID: "vPERSON01", GraphID: "energy", Kind: entities.KindNode,
			Name: "Person", NormalizedName: "PERSON",
		},
		{
			ID: "eSUPPLY01", GraphID: "energy", Kind: entities.KindEdge,
			Name: "Supplies", NormalizedName: "SUPPLIES",
			Attributes: []*entities.AttributeDefinition{
				{Name: "since", NormalizedName: "SINCE", DataType: entities.DataTypeDate, Required: true},
			},
		},
	}
}

func newTestEntityService(graph *mockGraphRepository, opts ...EntityOption) *EntityService {
	s := NewEntityService(&stubResolver{defs: testTypes()}, graph, opts...)
	s.now = func() time.Time { return testNow }
	return s
}

func vertexRow(id int64, label, props string) string {
	return fmt.Sprintf(`{"id": %d, "label": %q, "properties": %s}::vertex`, id, label, props)
}

// echoCreate answers CREATE statements with a vertex and MATCH statements with nothing
func echoCreate(id int64, label string) func(string) ([]string, error) {
	return func(stmt string) ([]string, error) {
		if strings.Contains(stmt, "CREATE") {
			return []string{vertexRow(id, label, `{"name": "Drax", "capacity": 3906}`)}, nil
		}
		return nil, nil
	}
}

func TestEntityService_CreateNode(t *testing.T) {
	graph := &mockGraphRepository{respond: echoCreate(844424930131969, "POWER_PLANT")}
	service := newTestEntityService(graph)

	e, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPLANT001",
		Properties: map[string]any{"name": "Drax", "capacity": 3906},
		CreatedBy:  testActor,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(844424930131969), e.ID)
	assert.Equal(t, "vPLANT001", e.TypeID)
	assert.Equal(t, entities.KindNode, e.Kind)
	assert.Equal(t, "POWER_PLANT", e.Label)
	name, ok := e.Name()
	assert.True(t, ok)
	assert.Equal(t, "Drax", name)

	stmts := graph.executed()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "MATCH (n:POWER_PLANT {name: 'Drax'}) RETURN n")
	assert.Contains(t, stmts[1],
		"CREATE (n:POWER_PLANT {capacity: 3906, created_at: '2024-02-10T15:30:00Z', created_by: '5d0c6b1e-8a55-4e1c-9b1e-2f7f3c1a9d42', name: 'Drax'}) RETURN n")
	assert.Equal(t, 1, graph.txCount)
}

func TestEntityService_CreateNode_ByTypeName(t *testing.T) {
	graph := &mockGraphRepository{respond: echoCreate(1, "PERSON")}
	service := newTestEntityService(graph)

	e, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeName:   "person",
		Properties: map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "vPERSON01", e.TypeID)

	// No name property: no uniqueness check
	stmts := graph.executed()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE (n:PERSON {")
}

func TestEntityService_CreateNode_EscapesQuotes(t *testing.T) {
	graph := &mockGraphRepository{respond: echoCreate(2, "PERSON")}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPERSON01",
		Properties: map[string]any{"name": "O'Brien", "count": 3},
	})
	require.NoError(t, err)

	stmts := graph.executed()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `{name: 'O\'Brien'}`)
	assert.Contains(t, stmts[1], "count: 3")
	assert.Contains(t, stmts[1], `name: 'O\'Brien'`)
}

func TestEntityService_CreateNode_ValuesStayInsideQuery(t *testing.T) {
	payload := "x $$) AS (row ag_catalog.agtype); DROP TABLE app_data.type_definitions; --"

	graph := &mockGraphRepository{respond: echoCreate(3, "PERSON")}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPERSON01",
		Properties: map[string]any{"name": payload},
	})
	require.NoError(t, err)

	for _, stmt := range graph.executed() {
		assert.Equal(t, 2, strings.Count(stmt, cypher.QueryDelimiter), stmt)
		assert.True(t, strings.HasSuffix(stmt, cypher.QueryDelimiter+") AS (row ag_catalog.agtype)"), stmt)
	}
}

func TestEntityService_CreateNode_RejectsQueryDelimiter(t *testing.T) {
	graph := &mockGraphRepository{respond: echoCreate(4, "PERSON")}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPERSON01",
		Properties: map[string]any{"name": "x " + cypher.QueryDelimiter + ") AS (row ag_catalog.agtype); DROP TABLE t; --"},
	})

	var ve *entities.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, entities.AttributeInvalidShape, ve.Errors[0].Kind)
	assert.Equal(t, "name", ve.Errors[0].Name)
	assert.Empty(t, graph.executed())

	_, err = service.GetNodeByName(context.Background(), "energy", "vPERSON01", cypher.QueryDelimiter)
	assert.True(t, errors.Is(err, entities.ErrInvalidArgument), "got %v", err)
	assert.Empty(t, graph.executed())
}

func TestEntityService_CreateNode_UnknownTypeExecutesNothing(t *testing.T) {
	tests := []struct {
		name string
		in   CreateEntityInput
	}{
		{"missing id", CreateEntityInput{GraphID: "energy", TypeID: "vMISSING0"}},
		{"missing name", CreateEntityInput{GraphID: "energy", TypeName: "Reactor"}},
		{"edge type", CreateEntityInput{GraphID: "energy", TypeID: "eSUPPLY01"}},
		{"other graph", CreateEntityInput{GraphID: "water", TypeID: "vPLANT001"}},
		{"no type", CreateEntityInput{GraphID: "energy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := &mockGraphRepository{}
			service := newTestEntityService(graph)

			_, err := service.CreateNode(context.Background(), tt.in)
			assert.True(t, errors.Is(err, entities.ErrUnknownType), "got %v", err)
			assert.Empty(t, graph.executed())
			assert.Equal(t, 0, graph.txCount)
		})
	}
}

func TestEntityService_CreateNode_ValidationErrors(t *testing.T) {
	observer := newCountingObserver()
	graph := &mockGraphRepository{}
	service := newTestEntityService(graph, WithEntityObserver(observer))

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID: "energy",
		TypeID:  "vPLANT001",
		Properties: map[string]any{
			"capacity": "large",
			"meta":     map[string]any{"a": 1},
		},
	})
	require.Error(t, err)

	var ve *entities.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []entities.AttributeError{
		{Kind: entities.AttributeInvalidShape, Name: "meta", Reason: "nested objects not allowed"},
		{Kind: entities.AttributeMissing, Name: "name"},
		{Kind: entities.AttributeWrongType, Name: "capacity", Expected: entities.DataTypeNumber},
	}, ve.Errors)
	assert.Contains(t, err.Error(), "required attribute 'name' is missing")
	assert.Contains(t, err.Error(), "attribute 'capacity' must be a number")

	assert.Empty(t, graph.executed())
	assert.Equal(t, map[string]int{"missing": 1, "wrong_type": 1, "invalid_shape": 1}, observer.validations)
}

func TestEntityService_CreateNode_DuplicateName(t *testing.T) {
	graph := &mockGraphRepository{respond: func(stmt string) ([]string, error) {
		return []string{vertexRow(5, "POWER_PLANT", `{"name": "Drax"}`)}, nil
	}}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPLANT001",
		Properties: map[string]any{"name": "Drax", "capacity": 1},
	})
	assert.True(t, errors.Is(err, entities.ErrEntityAlreadyExists), "got %v", err)

	stmts := graph.executed()
	require.Len(t, stmts, 1, "create must not run after a duplicate is found")
	assert.NotContains(t, stmts[0], "CREATE")
}

func TestEntityService_CreateNode_DecodeFailure(t *testing.T) {
	observer := newCountingObserver()
	graph := &mockGraphRepository{respond: func(stmt string) ([]string, error) {
		if strings.Contains(stmt, "CREATE") {
			return []string{`{"id": 1, "label": "X", "end_id": 2, "start_id": 3, "properties": {}}::edge`}, nil
		}
		return nil, nil
	}}
	service := newTestEntityService(graph, WithEntityObserver(observer))

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPERSON01",
		Properties: map[string]any{},
	})
	assert.True(t, errors.Is(err, agtype.ErrUnsupportedWireType), "got %v", err)
	assert.Equal(t, 1, observer.decodes)
}

func TestEntityService_CreateNode_PersistenceError(t *testing.T) {
	graph := &mockGraphRepository{respond: func(string) ([]string, error) {
		return nil, errors.New(`pq: graph "energy" does not exist`)
	}}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{
		GraphID:    "energy",
		TypeID:     "vPERSON01",
		Properties: map[string]any{},
	})
	var pe *entities.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "create node failed", err.Error())
}

func TestEntityService_CreateNode_InvalidGraphID(t *testing.T) {
	graph := &mockGraphRepository{}
	service := newTestEntityService(graph)

	_, err := service.CreateNode(context.Background(), CreateEntityInput{GraphID: "", TypeID: "vPERSON01"})
	assert.True(t, errors.Is(err, entities.ErrInvalidArgument))
	assert.Empty(t, graph.executed())
}

func TestEntityService_CreateEdge(t *testing.T) {
	graph := &mockGraphRepository{respond: func(string) ([]string, error) {
		return []string{"1125899906842625"}, nil
	}}
	service := newTestEntityService(graph)

	e, err := service.CreateEdge(context.Background(), CreateEdgeInput{
		CreateEntityInput: CreateEntityInput{
			GraphID:    "energy",
			TypeName:   "supplies",
			Properties: map[string]any{"since": "2020-01-01T00:00:00Z"},
			CreatedBy:  testActor,
		},
		FromID: 11,
		ToID:   22,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1125899906842625), e.ID)
	assert.Equal(t, entities.KindEdge, e.Kind)
	assert.Equal(t, "eSUPPLY01", e.TypeID)
	assert.Equal(t, "2020-01-01T00:00:00Z", e.Properties["since"])

	stmts := graph.executed()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "WHERE id(a) = 11 AND id(b) = 22 CREATE (a)-[e:SUPPLIES {")
}

func TestEntityService_CreateEdge_Errors(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		service := newTestEntityService(&mockGraphRepository{})
		_, err := service.CreateEdge(context.Background(), CreateEdgeInput{
			CreateEntityInput: CreateEntityInput{GraphID: "energy", TypeID: "eSUPPLY01",
				Properties: map[string]any{"since": "2020-01-01T00:00:00Z"}},
			FromID: 1, ToID: 2,
		})
		assert.True(t, errors.Is(err, entities.ErrEndpointNotFound), "got %v", err)
	})

	t.Run("node type", func(t *testing.T) {
		graph := &mockGraphRepository{}
		service := newTestEntityService(graph)
		_, err := service.CreateEdge(context.Background(), CreateEdgeInput{
			CreateEntityInput: CreateEntityInput{GraphID: "energy", TypeID: "vPERSON01"},
		})
		assert.True(t, errors.Is(err, entities.ErrUnknownType))
		assert.Empty(t, graph.executed())
	})

	t.Run("invalid date", func(t *testing.T) {
		graph := &mockGraphRepository{}
		service := newTestEntityService(graph)
		_, err := service.CreateEdge(context.Background(), CreateEdgeInput{
			CreateEntityInput: CreateEntityInput{GraphID: "energy", TypeID: "eSUPPLY01",
				Properties: map[string]any{"since": "last year"}},
		})
		var ve *entities.ValidationError
		assert.True(t, errors.As(err, &ve))
		assert.Empty(t, graph.executed())
	})

	t.Run("malformed id", func(t *testing.T) {
		service := newTestEntityService(&mockGraphRepository{respond: func(string) ([]string, error) {
			return []string{"not-a-number"}, nil
		}})
		_, err := service.CreateEdge(context.Background(), CreateEdgeInput{
			CreateEntityInput: CreateEntityInput{GraphID: "energy", TypeID: "eSUPPLY01",
				Properties: map[string]any{"since": "2020-01-01T00:00:00Z"}},
		})
		assert.True(t, errors.Is(err, agtype.ErrMalformedWireValue), "got %v", err)
	})
}

func TestEntityService_ListEntities(t *testing.T) {
	rows := []string{
		vertexRow(1, "POWER_PLANT", `{"name": "Drax"}`),
		vertexRow(2, "PERSON", `{"name": "Ada"}`),
		vertexRow(3, "LEGACY", `{}`),
		vertexRow(4, "POWER_PLANT", `{"name": "Ratcliffe"}`),
	}
	graph := &mockGraphRepository{respond: func(string) ([]string, error) { return rows, nil }}
	service := newTestEntityService(graph)

	got, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i, e := range got {
		assert.Equal(t, int64(i+1), e.ID, "results keep engine order")
		assert.Equal(t, entities.KindNode, e.Kind)
	}
	assert.Equal(t, "vPLANT001", got[0].TypeID)
	assert.Equal(t, "vPERSON01", got[1].TypeID)
	assert.Empty(t, got[2].TypeID, "labels without a type keep an empty type id")

	stmts := graph.executed()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "MATCH (n) RETURN n ORDER BY id(n) LIMIT 100")
}

func TestEntityService_ListEntities_DecodeWorkers(t *testing.T) {
	rows := make([]string, 30)
	for i := range rows {
		rows[i] = vertexRow(int64(i+1), "PERSON", `{}`)
	}

	for _, workers := range []int{1, 3, 64} {
		graph := &mockGraphRepository{respond: func(string) ([]string, error) { return rows, nil }}
		service := newTestEntityService(graph, WithDecodeWorkers(workers))

		got, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy"})
		require.NoError(t, err)
		require.Len(t, got, len(rows))
		for i, e := range got {
			assert.Equal(t, int64(i+1), e.ID, "workers=%d", workers)
		}
	}
}

func TestEntityService_ListEntities_ByType(t *testing.T) {
	graph := &mockGraphRepository{respond: func(string) ([]string, error) {
		return []string{vertexRow(7, "PERSON", `{"name": "Ada"}`)}, nil
	}}
	service := newTestEntityService(graph, WithPageLimit(50))

	got, err := service.ListEntities(context.Background(), ListEntitiesInput{
		GraphID: "energy", TypeID: "vPERSON01", Offset: 10, Limit: 500,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Properties["name"])

	stmts := graph.executed()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "MATCH (n:PERSON) RETURN n ORDER BY id(n) SKIP 10 LIMIT 50")
}

func TestEntityService_ListEntities_Errors(t *testing.T) {
	t.Run("edge type", func(t *testing.T) {
		graph := &mockGraphRepository{}
		service := newTestEntityService(graph)
		_, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy", TypeID: "eSUPPLY01"})
		assert.True(t, errors.Is(err, entities.ErrUnsupportedKind))
		assert.Empty(t, graph.executed())
	})

	t.Run("negative offset", func(t *testing.T) {
		service := newTestEntityService(&mockGraphRepository{})
		_, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy", Offset: -1})
		assert.True(t, errors.Is(err, entities.ErrInvalidArgument))
	})

	t.Run("unknown type", func(t *testing.T) {
		service := newTestEntityService(&mockGraphRepository{})
		_, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy", TypeID: "vNOPE0000"})
		assert.True(t, errors.Is(err, entities.ErrUnknownType))
	})

	t.Run("one bad row fails the listing", func(t *testing.T) {
		observer := newCountingObserver()
		service := newTestEntityService(&mockGraphRepository{respond: func(string) ([]string, error) {
			return []string{
				vertexRow(1, "PERSON", `{}`),
				`{"id": 2, "label": "PERSON", "properties": {}`,
				vertexRow(3, "PERSON", `{}`),
			}, nil
		}}, WithEntityObserver(observer))

		got, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy"})
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, agtype.ErrMalformedWireValue), "got %v", err)
		assert.Equal(t, 1, observer.decodes)
	})

	t.Run("resolver failure", func(t *testing.T) {
		graph := &mockGraphRepository{respond: func(string) ([]string, error) {
			return []string{vertexRow(1, "PERSON", `{}`)}, nil
		}}
		service := NewEntityService(&stubResolver{err: errors.New("cache backend down")}, graph)
		_, err := service.ListEntities(context.Background(), ListEntitiesInput{GraphID: "energy"})
		var pe *entities.PersistenceError
		assert.True(t, errors.As(err, &pe), "got %v", err)
	})
}

func TestEntityService_GetNodeByName(t *testing.T) {
	graph := &mockGraphRepository{respond: func(stmt string) ([]string, error) {
		if strings.Contains(stmt, "'Drax'") {
			return []string{vertexRow(9, "POWER_PLANT", `{"name": "Drax", "capacity": 3906}`)}, nil
		}
		return nil, nil
	}}
	service := newTestEntityService(graph)
	ctx := context.Background()

	e, err := service.GetNodeByName(ctx, "energy", "vPLANT001", "Drax")
	require.NoError(t, err)
	assert.Equal(t, int64(9), e.ID)
	assert.Equal(t, "vPLANT001", e.TypeID)

	_, err = service.GetNodeByName(ctx, "energy", "vPLANT001", "Ratcliffe")
	assert.True(t, errors.Is(err, entities.ErrEntityNotFound))

	_, err = service.GetNodeByName(ctx, "energy", "eSUPPLY01", "Drax")
	assert.True(t, errors.Is(err, entities.ErrUnknownType))
}

func TestEntityService_WithSchemaService(t *testing.T) {
	schemas, _ := newTestSchemaService(t, WithTypeCache(newTypeCache(t)))
	ctx := context.Background()

	def, err := schemas.CreateType(ctx, CreateTypeInput{
		Kind: entities.KindNode, GraphID: "energy", Name: "Substation",
		Attributes: []entities.AttributeSpec{{Name: "voltage", DataType: entities.DataTypeNumber, Required: true}},
	})
	require.NoError(t, err)

	graph := &mockGraphRepository{respond: echoCreate(3, "SUBSTATION")}
	service := NewEntityService(schemas, graph)

	_, err = service.CreateNode(ctx, CreateEntityInput{GraphID: "energy", TypeID: def.ID, Properties: map[string]any{}})
	var ve *entities.ValidationError
	require.True(t, errors.As(err, &ve))

	e, err := service.CreateNode(ctx, CreateEntityInput{
		GraphID: "energy", TypeName: "substation", Properties: map[string]any{"voltage": 400},
	})
	require.NoError(t, err)
	assert.Equal(t, def.ID, e.TypeID)
}

// A declared type must be usable by every entity operation.
func TestEntityService_DeclaredTypesAreInstantiable(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted names", func(t *testing.T) {
		for i, name := range []string{"Wind Farm", "  grid   operator ", "Meter\tReading"} {
			schemas, _ := newTestSchemaService(t)
			def, err := schemas.CreateType(ctx, CreateTypeInput{Kind: entities.KindNode, GraphID: "energy", Name: name})
			require.NoError(t, err, name)

			graph := &mockGraphRepository{respond: echoCreate(int64(i+1), def.NormalizedName)}
			service := NewEntityService(schemas, graph)

			_, err = service.CreateNode(ctx, CreateEntityInput{
				GraphID: "energy", TypeID: def.ID, Properties: map[string]any{"name": "A"},
			})
			require.NoError(t, err, name)

			_, err = service.ListEntities(ctx, ListEntitiesInput{GraphID: "energy", TypeID: def.ID})
			require.NoError(t, err, name)

			found := &mockGraphRepository{respond: func(string) ([]string, error) {
				return []string{vertexRow(int64(i+1), def.NormalizedName, `{"name": "A"}`)}, nil
			}}
			e, err := NewEntityService(schemas, found).GetNodeByName(ctx, "energy", def.ID, "A")
			require.NoError(t, err, name)
			assert.Equal(t, def.ID, e.TypeID)
		}
	})

	t.Run("non-ascii names are rejected at declaration", func(t *testing.T) {
		schemas, repo := newTestSchemaService(t)
		_, err := schemas.CreateType(ctx, CreateTypeInput{Kind: entities.KindNode, GraphID: "energy", Name: "Kraftwerk Größe"})
		assert.True(t, errors.Is(err, entities.ErrInvalidTypeName), "got %v", err)
		assert.Equal(t, 0, repo.saveCalls)
	})
}
