// Package tlsutil 为访问 browser-use 服务的 HTTP 客户端提供
// 安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件），并支持加载
// 额外的 CA 证书以信任自签名服务。
package tlsutil
