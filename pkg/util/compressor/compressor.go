package compressor

import "bytes"

// Compressor 抽象了"单次压缩/解压"能力，面向整块的 JSON 负载。
type Compressor interface {
	// Compress 将 src 压缩到 dst 并返回完整的压缩数据。
	// dst 可以传入可复用的缓冲区（长度可为 0）。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将 Compress 的输出解压到 dst。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// NopCompressor 原样返回输入。
type NopCompressor struct{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

var _ Compressor = NopCompressor{}

// zstdMagic 为 zstd 帧的起始字节。
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsZstd 判断 data 是否以 zstd 帧开头。
func IsZstd(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
