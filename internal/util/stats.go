package util

import (
	"github.com/montanaflynn/stats"
)

// 统计工具：三个分析组件共用的回归 / 变异系数 / 均值帮助函数。
// 样本不足时一律返回中性值而不是错误，由调用方决定置信度折减。

// Mean 算术平均，空切片返回 0
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// StdDev 总体标准差，样本数不足 2 返回 0
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return 0
	}
	return sd
}

// CoefficientOfVariation 变异系数（标准差/均值），均值为 0 或样本不足时返回 0
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	if m == 0 {
		return 0
	}
	return StdDev(values) / m
}

// RegressionSlope 以序号为自变量的一元线性回归斜率，样本数不足 2 返回 0
func RegressionSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	series := make(stats.Series, len(values))
	for i, v := range values {
		series[i] = stats.Coordinate{X: float64(i), Y: v}
	}

	fitted, err := stats.LinearRegression(series)
	if err != nil || len(fitted) < 2 {
		return 0
	}

	first := fitted[0]
	last := fitted[len(fitted)-1]
	dx := last.X - first.X
	if dx == 0 {
		return 0
	}
	return (last.Y - first.Y) / dx
}

// Clamp 将 v 截断到 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 将 v 截断到 [0,1]
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}
