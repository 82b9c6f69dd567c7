package utils

import "strings"

// Label 是推荐链路中的可解释标记：谁（Source）在什么阶段写下了什么（Value）。
// 例如过滤原因、排序模型、多样性截断原因。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // filter / rank / rerank / rule ...
}

// NewLabel 构造 Label。
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 合并同名 Label，保留历史：
// Value 以 '|' 累积，Source 以 ',' 累积，空值不参与累积。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Values 拆出累积的 Value 列表。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}
