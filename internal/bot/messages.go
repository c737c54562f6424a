package bot

// Reply templates. All of them are sent with HTML parse mode, so literal
// angle brackets are escaped.
const (
	startMessage = "👋 <b>Bienvenido a CashPilot</b>%s\n\n" +
		"Soy tu asistente para reconciliación de caja.\n\n" +
		"%s\n\n" +
		"Escribe /help para ver los comandos disponibles."

	startBusinessLine   = "🏪 Sucursal: <b>%s</b>"
	startNoBusinessLine = "🏪 Registra tu farmacia con <code>/configurar_sucursal &lt;id_sucursal&gt;</code> y comienza a trackear tus ventas."

	helpMessage = "📖 <b>Comandos disponibles</b>\n\n" +
		"<b>General:</b>\n" +
		"/start - Iniciar y registrar tu farmacia\n" +
		"/help - Ver este mensaje\n" +
		"/mi_farmacia - Ver info de tu farmacia\n" +
		"/configurar_sucursal &lt;id&gt; - Elegir tu sucursal\n\n" +
		"<b>Caja:</b>\n" +
		"/abrir_caja &lt;monto&gt; [horario] - Abrir caja\n" +
		"/cerrar_caja &lt;final&gt; &lt;sobre&gt; [crédito] [débito] [transferencias] - Cerrar caja\n" +
		"/estado - Ver estado de la caja actual\n\n" +
		"<b>Reportes:</b>\n" +
		"/historial [cantidad] - Últimas cajas de tu sucursal\n" +
		"/grafico - Ventas por medio de pago\n\n" +
		"¿Preguntas? Escribe /help nuevamente."

	businessInfoMessage = "🏪 <b>Tu Farmacia</b>\n\n" +
		"Nombre: %s\n" +
		"Dirección: %s\n" +
		"Teléfono: %s\n" +
		"Estado: %s"

	errorMessage = "❌ Algo salió mal\n\n" +
		"Ocurrió un error interno.\n\n" +
		"Intenta nuevamente o contacta al soporte."

	noBusinessMessage = "⚠️ No tienes una farmacia registrada.\n\n" +
		"Usa <code>/configurar_sucursal &lt;id_sucursal&gt;</code> para registrar tu farmacia primero."

	unauthorizedMessage = "⛔ No estás autorizado para usar este bot."
	rateLimitedMessage  = "⏳ Demasiadas solicitudes. Espera un momento e intenta de nuevo."

	unknownCommandMessage = "❓ Comando no reconocido. Usa /help para ver los comandos disponibles."
	unknownTextMessage    = "🤖 No entendí tu mensaje. Usa /help para ver los comandos disponibles."

	apiErrorMessage = "❌ Error: %s"

	businessFetchFailedMessage = "❌ No se pudo obtener la información de tu farmacia. Intenta más tarde."
	businessNotFoundMessage    = "❌ Sucursal no encontrada."
	businessInactiveMessage    = "⚠️ La sucursal <b>%s</b> está inactiva."
	businessConfiguredMessage  = "✅ Sucursal configurada: <b>%s</b>\n\nYa puedes abrir caja con <code>/abrir_caja &lt;monto&gt;</code>"
	configureUsageMessage      = "❌ <b>Uso incorrecto</b>\n\n" +
		"/configurar_sucursal &lt;id_sucursal&gt;\n\n" +
		"Ejemplo: <code>/configurar_sucursal 550e8400-e29b-41d4-a716-446655440000</code>"
	configureInvalidIDMessage   = "❌ El ID de sucursal debe ser un UUID válido."
	configureOpenSessionMessage = "⚠️ Tienes una caja abierta. Ciérrala con <code>/cerrar_caja</code> antes de cambiar de sucursal."

	openUsageMessage = "❌ <b>Uso incorrecto</b>\n\n" +
		"/abrir_caja &lt;monto_inicial&gt; [horario]\n\n" +
		"Ejemplo: <code>/abrir_caja 500000</code>"
	openInvalidAmountMessage = "❌ El monto debe ser un número válido.\n\n" +
		"Ejemplo: <code>/abrir_caja 500000</code>"
	openNonPositiveMessage     = "❌ El monto inicial debe ser mayor a 0."
	openNeedsBusinessMessage   = "❌ Debes configurar tu sucursal primero.\n\nUsa: <code>/configurar_sucursal &lt;id_sucursal&gt;</code>"
	openConflictMessage        = "⚠️ <b>Ya existe una caja abierta</b> para esta sucursal.\n\nCiérrala primero con <code>/cerrar_caja</code>"
	openConflictAdoptedMessage = "⚠️ <b>Ya existe una caja abierta</b> para esta sucursal.\n\n" +
		"🆔 ID: <code>%s</code>\n" +
		"💰 Monto inicial: %s\n" +
		"🕐 Abierta: %s\n\n" +
		"Quedó vinculada a tu cuenta. Ciérrala con <code>/cerrar_caja</code>"
	openFailedMessage    = "❌ Error al abrir caja. Intenta más tarde."
	sessionOpenedMessage = "✅ <b>Caja abierta</b>\n\n" +
		"🆔 ID: <code>%s</code>\n" +
		"💰 Monto inicial: %s\n" +
		"🕐 Hora: %s\n\n" +
		"<i>Cuando cierres la caja, usa /cerrar_caja</i>"

	closeUsageMessage = "❌ <b>Uso incorrecto</b>\n\n" +
		"/cerrar_caja &lt;monto_final&gt; &lt;monto_sobre&gt; [crédito] [débito] [transferencias]\n\n" +
		"Ejemplo: <code>/cerrar_caja 1200000 300000</code>"
	closeInvalidAmountMessage = "❌ Los montos deben ser números válidos.\n\n" +
		"Ejemplo: <code>/cerrar_caja 1200000 300000</code>"
	closeOutOfRangeMessage = "❌ Los montos deben ser válidos (&gt;= 0).\n\nEl monto final debe ser mayor a 0."
	closeNoSessionMessage  = "❌ No hay caja abierta.\n\nUsa <code>/abrir_caja</code> primero."
	sessionNotFoundMessage = "❌ Caja no encontrada."
	sessionInvalidMessage  = "⚠️ La caja no está abierta o ya fue cerrada."
	closeFailedMessage     = "❌ Error al cerrar caja. Intenta más tarde."
	sessionClosedMessage   = "✅ <b>Caja cerrada</b>\n\n" +
		"%s <b>%s</b>: %s\n" +
		"💰 Total efectivo: %s\n" +
		"📊 Ventas totales: %s\n" +
		"🕐 Cerrada a: %s\n\n" +
		"<i>Caja lista para nueva sesión.</i>"

	statusNoSessionMessage = "❌ No hay caja abierta actualmente."
	statusFailedMessage    = "❌ Error al obtener estado."
	statusOpenMessage      = "📖 <b>Estado de Caja (ABIERTA)</b>\n\n" +
		"🆔 ID: <code>%s</code>\n" +
		"💰 Monto inicial: %s\n" +
		"🕐 Abierta desde: %s\n\n" +
		"<i>Cierra con /cerrar_caja</i>"
	statusClosedMessage = "📖 <b>Estado de Caja (CERRADA)</b>\n\n" +
		"🆔 ID: <code>%s</code>\n" +
		"💰 Monto final: %s\n" +
		"🕐 Cerrada a: %s\n\n" +
		"<i>Abre una nueva con /abrir_caja</i>"

	historyUsageMessage  = "❌ Uso: <code>/historial [cantidad]</code> (entre 1 y 20)"
	historyEmptyMessage  = "📭 No hay cajas registradas para esta sucursal."
	historyFailedMessage = "❌ Error al obtener el historial. Intenta más tarde."
	historyHeader        = "📋 <b>Últimas %d cajas</b>\n🏪 %s\n\n"

	chartEmptyMessage   = "📊 No hay ventas registradas para graficar."
	chartFailedMessage  = "❌ Error al generar el gráfico. Intenta más tarde."
	chartSendFailed     = "❌ Error al enviar el gráfico. Intenta más tarde."
	chartCaptionMessage = "📊 <b>Ventas por medio de pago</b>\n\n" +
		"🏪 Sucursal: %s\n" +
		"🗂 Cajas cerradas: %d\n" +
		"💰 Total: %s"

	reminderMessage = "🔔 <b>Tienes una caja abierta</b>\n\n" +
		"🆔 ID: <code>%s</code>\n" +
		"💰 Monto inicial: %s\n" +
		"🕐 Abierta desde: %s\n\n" +
		"Recuerda cerrarla con <code>/cerrar_caja</code>."
)
