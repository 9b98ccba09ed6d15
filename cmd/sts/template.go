package main

const configTemplate = `# Sports Tournament Scheduling configuration
# ==========================================

# Results are written to <output_dir>/<PARADIGM>/<n>.json
output_dir: res

# Solving budget per (n, approach) run, at most 300s. A run that reaches it is
# recorded with the budget as its time and optimal false.
time_limit: 300s

# Extra time an engine gets past the budget before it is killed or abandoned
grace: 10s

# Pin team 1 hosting team n in the first slot
symmetry_breaking: true

# Minimize max_t |home_t - (n-1)/2| on top of feasibility
optimize: false

# Threads handed to engines that support them
threads: 1

# debug, info, warn or error
log_level: info

# Paths to external tools; tools not listed are looked up on PATH
executables:
  # kissat: /usr/local/bin/kissat
  # cadical: /usr/local/bin/cadical
  # minisat: /usr/bin/minisat
  # cryptominisat: /usr/local/bin/cryptominisat5
  # minizinc: /opt/minizinc/bin/minizinc

# Approaches run when --approach is not given
approaches:
  SAT: [gini]
  CP: [gecode, chuffed]
  MIP: [highs]
`
