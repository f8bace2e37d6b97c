package i18n

// ZhCNMessages 简体中文消息目录
var ZhCNMessages = map[string]string{
	// 看板 - 面板标题
	"panel.todos": "待办",
	"panel.story": "故事",
	"panel.log":   "同步日志",

	// 看板侧边栏
	"sidebar.story":    "故事",
	"sidebar.progress": "进度",
	"sidebar.session":  "会话",
	"sidebar.none":     "无",
	"sidebar.done":     "已完成 %d / %d",
	"sidebar.syncs":    "同步 %d 次",

	// 看板 - 空面板
	"empty.todos": "暂无待办",
	"empty.story": "尚未加载故事",
	"empty.log":   "暂无同步记录",

	// 看板 - 状态栏
	"status.initializing": "初始化中...",
	"status.error":        "错误：%s",
	"status.read_failed":  "读取 %s 失败：%s",
}
