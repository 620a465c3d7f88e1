// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 CLI 运行期间的指标监听。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，提供非阻塞
    Start、带超时的 Shutdown，以及异步错误通道 Errors。
  - Config：监听地址、读写超时与关闭超时。

监听地址可以是 ":0"，此时 Addr 返回实际分配的端口。
*/
package server
