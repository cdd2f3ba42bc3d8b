// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "github.com/antimetal/metricscore/dimension"

func expandDimensions(key dimension.Key) []Dimension {
	if len(key.Values) == 0 {
		return nil
	}
	out := make([]Dimension, len(key.Values))
	for i, fv := range key.Values {
		out[i] = Dimension{
			AtomTag:     fv.Path.AtomTag,
			FieldNumber: fv.Path.FieldNumber,
			Value:       fv.Value.String(),
		}
	}
	return out
}

func bucketFrame(startNs, endNs, bucketNs int64, partial bool) (num int64, isPartial bool) {
	if bucketNs > 0 && !partial {
		num = startNs / bucketNs
	}
	return num, partial
}
