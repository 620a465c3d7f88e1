// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 browser 让智能体把网页自动化目标交给远程 browser-use 服务执行。

# 概述

browser 本身不驱动浏览器。它把一段自然语言目标（Objective）提交给
远程服务，拿到不透明的任务句柄（TaskHandle），然后按固定间隔轮询，
直到任务完成、报错或超时，最终返回可直接交给 LLM 的 JSON 文本。

# 核心接口

  - Client：远程服务访问接口，定义 Submit / Query 两个方法
  - HTTPClient：基于 resty 的 Client 实现，对应
    POST /submit 与 GET /query/{task_id}
  - TaskPoller：提交 + 轮询 + 超时的状态机，Run 永不返回错误
  - Recorder / RequestObserver：运行与请求观测接口，由 internal/metrics 实现

# 状态机

任务状态按 Submitted → Processing* → Completed | Error | TimedOut 流转：

  - 提交失败（非 202、网络错误、缺少 task_id）直接返回
    "Failed to submit task"，不会轮询
  - 200 为 completed，202 为 processing，其余状态码为 error
  - 轮询中的网络错误不重试，立即作为终态返回
  - 超过 timeout 仍在 processing 时返回 "Task timed out"

# 与其他包协同

llm/tools 中的 NewBrowserUseTool 把 TaskPoller 包装成 browser_use
工具，注册到 ToolRegistry 后即可被 tool-calling 智能体调用。
*/
package browser
