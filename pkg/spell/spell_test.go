// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package spell_test

import (
	"testing"

	"carvel.dev/cfnls/pkg/spell"
	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, spell.Distance("MyTable", "MyTable"))
	assert.Equal(t, 2, spell.Distance("MyTabel", "MyTable"))
	assert.Equal(t, 3, spell.Distance("kitten", "sitting"))
	assert.Equal(t, 4, spell.Distance("", "abcd"))
	assert.Equal(t, 1, spell.Distance("Tëst", "Test"))
}

func TestSuggest(t *testing.T) {
	candidates := []string{"MyTable", "MyFunction", "AWS::Region"}

	assert.Equal(t, "MyTable", spell.Suggest("MyTabel", candidates))
	assert.Equal(t, "MyTable", spell.Suggest("mytable", candidates))
	assert.Equal(t, "AWS::Region", spell.Suggest("AWS::Regoin", candidates))
	assert.Equal(t, "", spell.Suggest("Bucket", candidates))
	assert.Equal(t, "", spell.Suggest("MyTable", []string{"MyTable"}))
}
