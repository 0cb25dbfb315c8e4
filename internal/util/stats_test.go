package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.InDelta(t, 70.0, Mean([]float64{60, 70, 80}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{50}))
	// 总体标准差：[2,4,4,4,5,5,7,9] 的经典结果是 2
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{80}))
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{80, 80, 80}))

	cv := CoefficientOfVariation([]float64{50, 100})
	assert.InDelta(t, 25.0/75.0, cv, 1e-9)

	// 均值为 0 时不做除法
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{-10, 10}))
}

func TestRegressionSlope(t *testing.T) {
	assert.Equal(t, 0.0, RegressionSlope([]float64{42}))

	// 完全线性的序列还原出步长
	assert.InDelta(t, 5.0, RegressionSlope([]float64{60, 65, 70, 75}), 1e-9)
	assert.InDelta(t, -3.0, RegressionSlope([]float64{90, 87, 84, 81, 78}), 1e-9)
	assert.InDelta(t, 0.0, RegressionSlope([]float64{70, 70, 70}), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-2, 0, 1))
	assert.Equal(t, 1.0, Clamp(7, 0, 1))
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.1))
}
