// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAsFloat64(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected float64
		numeric  bool
	}{
		{"int32", Int32Value(7), 7, true},
		{"int64", Int64Value(-42), -42, true},
		{"float", FloatValue(1.5), 1.5, true},
		{"double", DoubleValue(2.25), 2.25, true},
		{"string not numeric", StringValue("x"), 0, false},
		{"bool not numeric", BoolValue(true), 0, false},
		{"bytes not numeric", BytesValue([]byte("x")), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.AsFloat64()
			assert.Equal(t, tt.numeric, ok)
			if tt.numeric {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestValueCompare(t *testing.T) {
	c, err := Int64Value(5).Compare(Int64Value(10))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = DoubleValue(3.5).Compare(Int32Value(2))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = StringValue("a").Compare(StringValue("b"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	_, err = BoolValue(true).Compare(BoolValue(false))
	assert.Error(t, err)

	_, err = StringValue("a").Compare(Int32Value(1))
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, BytesValue([]byte("abc")).Equal(BytesValue([]byte("abc"))))
	assert.False(t, BytesValue([]byte("abc")).Equal(BytesValue([]byte("abd"))))
	assert.False(t, Int32Value(1).Equal(Int64Value(1)))
	assert.True(t, Int32Value(1).Equal(Int32Value(1)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "7", Int32Value(7).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "hi", StringValue("hi").String())
}
