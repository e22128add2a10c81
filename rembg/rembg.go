package rembg

import (
	"context"
	"image"
)

// Remover 背景去除接口：输入任意图片，输出同尺寸、背景透明的图片
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Noop 直接透传，本地开发和测试用
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
