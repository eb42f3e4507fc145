// Package repository 定义了与数据库进行数据交换的接口和实现。
//
// 这里是整个系统的核心持久层：会话目录、只追加消息日志与按键更新的
// 元数据文档。每个操作在自身内部获取连接并在返回前释放，不跨操作持有
// 任何连接或事务。
package repository

import (
	"context"
	"time"
)

// defaultQueryTimeout 在配置缺省时限定单次数据库操作的时长，
// 网络后端的超时以瞬态错误返回而不是挂起调用方。
const defaultQueryTimeout = 5 * time.Second

func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
