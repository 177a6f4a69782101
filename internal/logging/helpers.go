package logging

// Per-category convenience functions, mirroring the teacher's
// logging.Embedding/logging.EmbeddingDebug style so call sites read as
// `logging.Schema(...)` / `logging.SchemaDebug(...)` instead of
// `logging.Get(logging.CategorySchema).Info(...)`.

func Schema(format string, args ...interface{})      { Get(CategorySchema).Info(format, args...) }
func SchemaDebug(format string, args ...interface{}) { Get(CategorySchema).Debug(format, args...) }

func Glossary(format string, args ...interface{})      { Get(CategoryGlossary).Info(format, args...) }
func GlossaryDebug(format string, args ...interface{}) { Get(CategoryGlossary).Debug(format, args...) }

func PII(format string, args ...interface{})      { Get(CategoryPII).Info(format, args...) }
func PIIDebug(format string, args ...interface{}) { Get(CategoryPII).Debug(format, args...) }

func SQLExec(format string, args ...interface{})      { Get(CategorySQLExec).Info(format, args...) }
func SQLExecDebug(format string, args ...interface{}) { Get(CategorySQLExec).Debug(format, args...) }

func Sandbox(format string, args ...interface{})      { Get(CategorySandbox).Info(format, args...) }
func SandboxDebug(format string, args ...interface{}) { Get(CategorySandbox).Debug(format, args...) }

func Agent(format string, args ...interface{})      { Get(CategoryAgent).Info(format, args...) }
func AgentDebug(format string, args ...interface{}) { Get(CategoryAgent).Debug(format, args...) }

func Healing(format string, args ...interface{})      { Get(CategoryHealing).Info(format, args...) }
func HealingDebug(format string, args ...interface{}) { Get(CategoryHealing).Debug(format, args...) }

func Analytics(format string, args ...interface{})      { Get(CategoryAnalytics).Info(format, args...) }
func AnalyticsDebug(format string, args ...interface{}) { Get(CategoryAnalytics).Debug(format, args...) }

func Research(format string, args ...interface{})      { Get(CategoryResearch).Info(format, args...) }
func ResearchDebug(format string, args ...interface{}) { Get(CategoryResearch).Debug(format, args...) }

func Sentry(format string, args ...interface{})      { Get(CategorySentry).Info(format, args...) }
func SentryDebug(format string, args ...interface{}) { Get(CategorySentry).Debug(format, args...) }

func AlertBus(format string, args ...interface{})      { Get(CategoryAlertBus).Info(format, args...) }
func AlertBusDebug(format string, args ...interface{}) { Get(CategoryAlertBus).Debug(format, args...) }

func Embedding(format string, args ...interface{})      { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{}) { Get(CategoryEmbedding).Debug(format, args...) }
