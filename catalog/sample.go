package catalog

import (
	"bytes"
	_ "embed"
)

//go:embed data/recipes.csv
var sampleCSV []byte

// Sample 返回内置的示例目录，未配置目录文件时使用。
func Sample() *Catalog {
	c, err := Parse(bytes.NewReader(sampleCSV))
	if err != nil {
		panic("catalog: embedded sample is invalid: " + err.Error())
	}
	return c
}
