// internal/models/project_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage1Data_ItemLifecycle(t *testing.T) {
	data := NewStage1Data()

	item := Stage1Item{ID: "item-1", Title: "Acme Launch Kit", Content: "Starter kit, 9800 yen"}
	require.NoError(t, data.AddItem(CategoryProductInfo, item))
	require.Len(t, data.ProductInfo, 1)

	require.NoError(t, data.UpdateItem(CategoryProductInfo, "item-1", "Acme Launch Kit v2", "Updated pricing"))
	assert.Equal(t, "item-1", data.ProductInfo[0].ID)
	assert.Equal(t, "Acme Launch Kit v2", data.ProductInfo[0].Title)
	assert.Equal(t, "Updated pricing", data.ProductInfo[0].Content)

	require.NoError(t, data.RemoveItem(CategoryProductInfo, "item-1"))
	assert.Empty(t, data.ProductInfo)
}

func TestStage1Data_UnknownCategory(t *testing.T) {
	data := NewStage1Data()

	assert.Error(t, data.AddItem("financials", Stage1Item{ID: "x"}))
	assert.Error(t, data.UpdateItem("financials", "x", "t", "c"))
	assert.Error(t, data.RemoveItem("financials", "x"))
}

func TestStage1Data_RemoveMatchesExactID(t *testing.T) {
	data := NewStage1Data()
	require.NoError(t, data.AddItem(CategoryCustomerInfo, Stage1Item{ID: "a", Title: "t1", Content: "c1"}))
	require.NoError(t, data.AddItem(CategoryCustomerInfo, Stage1Item{ID: "b", Title: "t2", Content: "c2"}))

	require.NoError(t, data.RemoveItem(CategoryCustomerInfo, "a"))
	require.Len(t, data.CustomerInfo, 1)
	assert.Equal(t, "b", data.CustomerInfo[0].ID)

	assert.Error(t, data.RemoveItem(CategoryCustomerInfo, "a"))
}

func TestStage1Data_ItemCount(t *testing.T) {
	data := NewStage1Data()
	assert.Equal(t, 0, data.ItemCount())

	require.NoError(t, data.AddItem(CategoryProductInfo, Stage1Item{ID: "1"}))
	require.NoError(t, data.AddItem(CategoryMarketInfo, Stage1Item{ID: "2"}))
	require.NoError(t, data.AddItem(CategoryPastData, Stage1Item{ID: "3"}))
	assert.Equal(t, 3, data.ItemCount())
}

func TestParseStageSlug(t *testing.T) {
	tests := []struct {
		slug    string
		want    int
		wantErr bool
	}{
		{slug: "stage1", want: 1},
		{slug: "stage5", want: 5},
		{slug: "stage0", wantErr: true},
		{slug: "stage6", wantErr: true},
		{slug: "stageX", wantErr: true},
		{slug: "settings", wantErr: true},
		{slug: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got, err := ParseStageSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject_StagePayload(t *testing.T) {
	stage1 := NewStage1Data()
	p := Project{
		CurrentStage: 2,
		Stage1:       &stage1,
		Stage2:       &Stage2Data{Keywords: "launch, starter"},
	}

	assert.Equal(t, &stage1, p.StagePayload(1))
	assert.Equal(t, p.Stage2, p.StagePayload(2))
	assert.Nil(t, p.StagePayload(3))
	assert.Nil(t, p.StagePayload(5))
}
