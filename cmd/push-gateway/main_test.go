package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 编译本测试即编译 main.go，常量名与导入的包名冲突会在这里暴露
func TestServiceIdentity(t *testing.T) {
	assert.Equal(t, "push-gateway", serviceName)
	assert.Equal(t, 8088, listenPort)
}
