package conversation

import (
	"context"

	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/pkg/formatter"
)

type Gateway interface {
	Send(ctx context.Context, messages []entity.Message, opts entity.SendOptions) (*entity.ModelReply, error)
}

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}
