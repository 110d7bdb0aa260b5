// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package assert

import (
	"math"
	"reflect"
	"testing"
)

// Equal fails the test unless expected and actual are deeply equal.  Integers
// of differing widths are compared by value, so assert.Equal(t, 3, uint(3))
// holds.
func Equal(t *testing.T, expected, actual any, msg ...any) {
	t.Helper()
	//
	if reflect.DeepEqual(expected, actual) || numericEqual(expected, actual) {
		return
	}
	//
	t.Errorf("expected: %v, actual: %v", expected, actual)
	fail(t, msg)
}

// True fails the test when the condition does not hold.
func True(t *testing.T, condition bool, msg ...any) {
	t.Helper()
	//
	if !condition {
		t.Errorf("condition is false")
		fail(t, msg)
	}
}

// False fails the test when the condition holds.
func False(t *testing.T, condition bool, msg ...any) {
	t.Helper()
	//
	if condition {
		t.Errorf("condition is true")
		fail(t, msg)
	}
}

func fail(t *testing.T, msg []any) {
	t.Helper()
	//
	if len(msg) != 0 {
		if format, ok := msg[0].(string); ok {
			t.Errorf(format, msg[1:]...)
		} else {
			t.Error(msg...)
		}
	}
	//
	t.FailNow()
}

// numericEqual compares two integer values of (possibly) different types.
// Unsigned values beyond the range of int64 only compare against uint64.
func numericEqual(expected, actual any) bool {
	x, xSigned := toInt64(expected)
	y, ySigned := toInt64(actual)
	//
	switch {
	case xSigned && ySigned:
		return x == y
	case xSigned || ySigned:
		return false
	}
	//
	a, aok := expected.(uint64)
	b, bok := actual.(uint64)
	//
	return aok && bok && a == b
}

func toInt64(x any) (int64, bool) {
	v := reflect.ValueOf(x)
	//
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := v.Uint(); u <= math.MaxInt64 {
			return int64(u), true
		}
	}
	//
	return 0, false
}
