// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 browseruse 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent/browser、llm/tools
与 config 提供统一的类型契约。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 HTTP 状态码与 Retryable 标记
  - ToolSchema：工具定义（name + description + JSON Schema parameters）
  - ToolCall：模型发起的一次工具调用
  - ToolResult：工具执行结果

# 主要能力

  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
  - 常用错误构造：NewConfigError / NewTransportError
*/
package types
