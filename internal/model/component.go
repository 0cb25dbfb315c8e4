package model

// Component 考试技能维度（听说读写）
type Component string

const (
	Reading   Component = "reading"
	Writing   Component = "writing"
	Listening Component = "listening"
	Speaking  Component = "speaking"
)

// AllComponents 按固定顺序返回全部技能维度
func AllComponents() []Component {
	return []Component{Reading, Writing, Listening, Speaking}
}
