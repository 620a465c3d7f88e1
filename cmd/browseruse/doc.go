// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 browseruse 命令行程序入口。

# 概述

cmd/browseruse 把自然语言目标提交给远程 browser-use 服务，轮询直到
完成、报错或超时，并把 JSON 结果打印到 stdout。日志写入 stderr。

# 主要能力

  - 子命令：run（执行单个目标）、call（从 stdin 读取 ToolCall 并经
    注册表与执行器运行）、schema（打印工具 schema）、version、help
  - 配置：默认值 → YAML → .env → 环境变量，命令行参数最后覆盖
  - 指标：metrics.enabled 时在 metrics.addr 暴露 /metrics 与 /healthz
  - 遥测：telemetry.enabled 时通过 OTLP/gRPC 导出运行 span
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置

# 退出码

成功为 0；任务失败、超时或配置无效为 1；参数错误为 2。
*/
package main
