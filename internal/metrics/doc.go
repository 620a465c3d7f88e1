// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的 browser-use 指标采集能力。

# 核心类型

  - Collector：指标收集器，使用 promauto.With 注册到独立的
    Registry，同时实现 browser.Recorder 与 tools.ToolObserver。

# 主要能力

  - 远程请求指标：请求总数与耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx，传输失败记为 unknown。
  - 任务指标：提交结果、轮询状态、运行结果与端到端耗时。
  - 工具指标：工具调用次数与耗时，按 tool/status 分组。
*/
package metrics
