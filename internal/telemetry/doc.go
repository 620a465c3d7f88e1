// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为浏览器任务运行提供 OTLP/gRPC 的 TracerProvider 和 MeterProvider。
// 禁用时返回 noop 实现，Tracer 退回全局 provider。
package telemetry
