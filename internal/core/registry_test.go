package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltInKinds(t *testing.T) {
	assert.Equal(t, 3, KindCount())

	kinds := All()
	require.Len(t, kinds, 3)
	assert.Equal(t, []string{KindDepartments, KindPrisoners, KindOfficers},
		[]string{kinds[0].Key, kinds[1].Key, kinds[2].Key})
	assert.Equal(t, FormatJSON, kinds[0].Format)
	assert.Equal(t, FormatJSON, kinds[1].Format)
	assert.Equal(t, FormatXML, kinds[2].Format)

	k, ok := Get(KindOfficers)
	require.True(t, ok)
	assert.NotNil(t, k.Import)

	_, ok = Get("guards")
	assert.False(t, ok)
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		Register(ImportKind{Key: KindPrisoners, Import: importPrisoners})
	})
}

func TestRegister_PanicsWithoutImport(t *testing.T) {
	assert.Panics(t, func() {
		Register(ImportKind{Key: "no-import-func"})
	})
	_, ok := Get("no-import-func")
	assert.False(t, ok)
}

func TestRegister_CustomKindOrdering(t *testing.T) {
	noop := func(context.Context, Store, string) (Report, error) { return Report{}, nil }
	Register(ImportKind{Key: "zz-test-kind", Order: 0, Import: noop})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "zz-test-kind")
		registryMu.Unlock()
	})

	kinds := All()
	assert.Equal(t, "zz-test-kind", kinds[0].Key)
}
