package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/proposalkit/backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic. Используется для фоновых
// сайд-эффектов (push в websocket, фоновый прогон просрочки): их паника
// не должна ронять процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.WithComponent("goroutine").
					Errorf("panic в горутине: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	SafeGo(func() { fn(ctx) })
}
